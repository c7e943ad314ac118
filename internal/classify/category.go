package classify

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Category is the semantic content class that drives sizing and quality policy.
type Category string

const (
	Soldier      Category = "soldier"
	Tree         Category = "tree"
	Foliage      Category = "foliage"
	Skybox       Category = "skybox"
	Texture      Category = "texture"
	UI           Category = "ui"
	AmbientAudio Category = "ambient-audio"
	ImpactAudio  Category = "impact-audio"
	Misc         Category = "misc"
)

// All lists every category in display order.
func All() []Category {
	return []Category{Soldier, Tree, Foliage, Skybox, Texture, UI, AmbientAudio, ImpactAudio, Misc}
}

// Parse validates a category name.
func Parse(value string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range All() {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

// IsAudio reports whether the category describes a sound asset.
func (c Category) IsAudio() bool {
	return c == AmbientAudio || c == ImpactAudio
}

func (c Category) String() string { return string(c) }

// Media separates image and audio assets.
type Media string

const (
	MediaImage Media = "image"
	MediaAudio Media = "audio"
)

var audioExtensions = map[string]struct{}{
	".wav":  {},
	".ogg":  {},
	".mp3":  {},
	".flac": {},
}

var imageExtensions = map[string]struct{}{
	".png": {},
}

// MediaOf infers the media kind from the file extension. Unknown extensions
// are treated as images.
func MediaOf(name string) Media {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := audioExtensions[ext]; ok {
		return MediaAudio
	}
	return MediaImage
}

// Supported reports whether the extension is one the pipeline can process.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := audioExtensions[ext]; ok {
		return true
	}
	_, ok := imageExtensions[ext]
	return ok
}
