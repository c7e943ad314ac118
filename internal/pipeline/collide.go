package pipeline

import (
	"fmt"
	"path"
	"strings"

	"assetopt/internal/assets"
	"assetopt/internal/services"
)

// outputCollisions finds assets whose output would overwrite an earlier
// asset's. Audio stages replace the extension (jungle.wav and jungle.flac
// both become jungle.ogg), so two assets of one media kind sharing a stem
// collide. The first asset in discovery order keeps the name; later ones map
// to an ErrInvalidAsset error keyed by their index.
func outputCollisions(records []assets.Record) map[int]error {
	owners := make(map[string]string, len(records))
	var collisions map[int]error
	for i, record := range records {
		key := string(record.Media) + ":" + strings.TrimSuffix(record.Name, path.Ext(record.Name))
		first, taken := owners[key]
		if !taken {
			owners[key] = record.Name
			continue
		}
		if collisions == nil {
			collisions = make(map[int]error)
		}
		collisions[i] = services.Wrap(services.ErrInvalidAsset, "pipeline", "output name",
			fmt.Sprintf("%s collides with %s; rename one of them", record.Name, first), nil)
	}
	return collisions
}
