package assets_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"assetopt/internal/assets"
	"assetopt/internal/classify"
	"assetopt/internal/services"
	"assetopt/internal/testsupport"
)

func TestDiscoverFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Palm.png"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "EnemyDeath.wav"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "notes.txt"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "ui", "Crosshair.png"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "ui", "Crosshair_old.png"), 10)

	names, err := assets.Discover(root, []string{"*.png", "*.wav", "*.txt"}, nil)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if want := []string{"EnemyDeath.wav", "Palm.png"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}

	names, err = assets.Discover(root, []string{"**/*.png", "*.png"}, []string{"**/*_old.png"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if want := []string{"Palm.png", "ui/Crosshair.png"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestDiscoverErrors(t *testing.T) {
	if _, err := assets.Discover(filepath.Join(t.TempDir(), "missing"), []string{"*.png"}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := assets.Discover(t.TempDir(), []string{"[bad"}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for bad pattern, got %v", err)
	}
}

func TestInspectImage(t *testing.T) {
	root := t.TempDir()
	testsupport.WritePNG(t, filepath.Join(root, "Coconut_Palm.png"), 20, 10)

	record, err := assets.Inspector{}.Inspect(context.Background(), root, "Coconut_Palm.png")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if record.Category != classify.Tree || record.Media != classify.MediaImage {
		t.Fatalf("unexpected classification %+v", record)
	}
	if record.Width != 20 || record.Height != 10 || record.Dimensions() != "20x10" {
		t.Fatalf("unexpected dimensions %+v", record)
	}
	if record.Size <= 0 {
		t.Fatalf("expected size, got %d", record.Size)
	}
}

func TestInspectAudioWithProbe(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(map[string]string{"ffprobe": testsupport.StubFFprobe}))
	root := cfg.Paths.AssetsDir
	testsupport.WriteWAV(t, filepath.Join(root, "JungleAmbient.wav"), 44100, 2, 100)

	inspector := assets.Inspector{FFprobe: cfg.Tools.FFprobe}
	record, err := inspector.Inspect(context.Background(), root, "JungleAmbient.wav")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if record.Category != classify.AmbientAudio {
		t.Fatalf("category = %s, want ambient-audio", record.Category)
	}
	if record.Channels != 2 || record.SampleRate != 44100 || record.DurationSeconds != 0.5 {
		t.Fatalf("unexpected audio info %+v", record)
	}
	if record.Dimensions() != "" {
		t.Fatalf("audio should have no dimensions, got %q", record.Dimensions())
	}
}

func TestInspectAudioProbeFailureKeepsRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(map[string]string{"ffprobe": testsupport.StubFailing}))
	root := cfg.Paths.AssetsDir
	testsupport.WriteWAV(t, filepath.Join(root, "Gunshot.wav"), 22050, 1, 10)

	record, err := assets.Inspector{FFprobe: cfg.Tools.FFprobe}.Inspect(context.Background(), root, "Gunshot.wav")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if record.Category != classify.ImpactAudio || record.Channels != 0 {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestInspectRejectsInvalidAssets(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "empty.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteFile(t, filepath.Join(root, "corrupt.png"), 64)

	for _, name := range []string{"empty.png", "corrupt.png", "missing.png"} {
		if _, err := (assets.Inspector{}).Inspect(context.Background(), root, name); !errors.Is(err, services.ErrInvalidAsset) {
			t.Fatalf("Inspect(%s) error = %v, want ErrInvalidAsset", name, err)
		}
	}
}
