package mqaid_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/simonhull/mqaid"
	"github.com/simonhull/mqaid/internal/flac/flactest"
	"github.com/simonhull/mqaid/internal/watermark/watermarktest"
)

func writeTrack(t *testing.T, fsys billy.Filesystem, path string, mark *watermarktest.Mark) {
	t.Helper()
	samples := watermarktest.Carrier(6000)
	if mark != nil {
		watermarktest.Plant(samples, *mark)
	}
	left, right := watermarktest.Split(samples)
	if err := util.WriteFile(fsys, path, flactest.MustBuild(flactest.Stereo(44100, 16, left, right)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIdentify(t *testing.T) {
	fsys := memfs.New()
	writeTrack(t, fsys, "/m/mqa.flac", &watermarktest.Mark{Start: 200, Bit: 0, RateCode: 0b0001, Provenance: 3})
	writeTrack(t, fsys, "/m/plain.flac", nil)

	tests := []struct {
		name        string
		path        string
		watermarked bool
		rate        uint32
		wantErr     bool
	}{
		{name: "watermarked", path: "/m/mqa.flac", watermarked: true, rate: 48000},
		{name: "plain", path: "/m/plain.flac"},
		{name: "missing", path: "/m/none.flac", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mqaid.Identify(context.Background(), tt.path, mqaid.WithFilesystem(fsys))
			if tt.wantErr {
				var verr *mqaid.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if mqaid.Reason(err) != "Path does not exist" {
					t.Errorf("Reason() = %q", mqaid.Reason(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Identify() error = %v", err)
			}
			if res.Watermarked != tt.watermarked {
				t.Errorf("Watermarked = %v, want %v", res.Watermarked, tt.watermarked)
			}
			if res.OriginalSampleRate != tt.rate {
				t.Errorf("OriginalSampleRate = %d, want %d", res.OriginalSampleRate, tt.rate)
			}
			if res.Studio {
				t.Error("provenance 3 must not report studio")
			}
		})
	}
}

func TestIdentify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mqaid.Identify(ctx, "/m/mqa.flac", mqaid.WithFilesystem(memfs.New())); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIdentifyMany(t *testing.T) {
	fsys := memfs.New()
	writeTrack(t, fsys, "/m/1.flac", &watermarktest.Mark{Start: 100, Bit: 0, RateCode: 0b1001, Provenance: 9})
	writeTrack(t, fsys, "/m/2.flac", nil)
	writeTrack(t, fsys, "/m/3.flac", &watermarktest.Mark{Start: 900, Bit: 0, RateCode: 0})

	paths := []string{"/m/1.flac", "/m/2.flac", "/m/missing.flac", "/m/3.flac"}
	results, err := mqaid.IdentifyMany(context.Background(), paths, mqaid.WithFilesystem(fsys), mqaid.WithWorkers(2))
	if err != nil {
		t.Fatalf("IdentifyMany() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	if !results[0].Watermarked || !results[0].Studio || results[0].OriginalSampleRate != 96000 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Watermarked || results[1].Failed() {
		t.Errorf("results[1] = %+v", results[1])
	}
	if !results[2].Failed() {
		t.Error("missing file should fail without stopping the batch")
	}
	if !results[3].Watermarked || results[3].OriginalSampleRate != 44100 {
		t.Errorf("results[3] = %+v", results[3])
	}
}

func TestIdentifyMany_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := mqaid.IdentifyMany(ctx, []string{"/a.flac", "/b.flac"}, mqaid.WithFilesystem(memfs.New()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for i, res := range results {
		if res.Path != "" {
			t.Errorf("results[%d] should not have started: %+v", i, res)
		}
	}
}

func TestTag(t *testing.T) {
	fsys := memfs.New()
	writeTrack(t, fsys, "/m/mqa.flac", nil)

	res, err := mqaid.Tag("/m/mqa.flac", 96000, mqaid.WithTagFilesystem(fsys), mqaid.WithVerify())
	if err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	if !res.Modified || len(res.Added) != 2 {
		t.Errorf("first Tag() = %+v, want both tags added", res)
	}

	res, err = mqaid.Tag("/m/mqa.flac", 96000, mqaid.WithTagFilesystem(fsys))
	if err != nil {
		t.Fatalf("second Tag() error = %v", err)
	}
	if res.Modified {
		t.Error("second Tag() should be a no-op")
	}

	if _, err := mqaid.Tag("/m/absent.flac", 0, mqaid.WithTagFilesystem(fsys)); err == nil {
		t.Error("expected error for missing file")
	} else {
		var terr *mqaid.TaggingError
		if !errors.As(err, &terr) {
			t.Errorf("expected TaggingError, got %T", err)
		}
	}
}

func TestGetVersionInfo(t *testing.T) {
	info := mqaid.GetVersionInfo()
	if info.Version != mqaid.Version {
		t.Errorf("Version = %q, want %q", info.Version, mqaid.Version)
	}
	if info.GoVersion == "" || info.GoVersion == "unknown" {
		t.Errorf("GoVersion should fall back to the runtime, got %q", info.GoVersion)
	}
}

func TestRateLabel(t *testing.T) {
	tests := map[uint32]string{
		44100:   "44.1K",
		352800:  "352.8K",
		5644800: "DSD128",
		6144000: "DSD128x48",
	}
	for hz, want := range tests {
		if got := mqaid.RateLabel(hz); got != want {
			t.Errorf("RateLabel(%d) = %q, want %q", hz, got, want)
		}
	}
	if rate, err := mqaid.DecodeOriginalRate(0b1001); err != nil || rate != 96000 {
		t.Errorf("DecodeOriginalRate(9) = %d, %v", rate, err)
	}
	if !mqaid.DecodeProvenance(9) || mqaid.DecodeProvenance(8) {
		t.Error("provenance threshold is > 8")
	}
}
