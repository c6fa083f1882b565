package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ah-its-andy/vid2hevc/internal/config"
	"github.com/ah-its-andy/vid2hevc/internal/converter"
	"github.com/ah-its-andy/vid2hevc/internal/db"
	"github.com/ah-its-andy/vid2hevc/internal/photos"
	"github.com/ah-its-andy/vid2hevc/internal/session"
	"github.com/ah-its-andy/vid2hevc/internal/utils"
	"github.com/ah-its-andy/vid2hevc/internal/verify"
	"github.com/ah-its-andy/vid2hevc/internal/worker"
	"github.com/schollz/progressbar/v3"
)

func main() {
	var (
		outDir    = flag.String("out", "", "output directory, default alongside each source")
		suffix    = flag.String("suffix", session.DefaultOutputSuffix, "suffix inserted before the output extension")
		crf       = flag.Int("crf", 23, "x265 constant rate factor (0-51)")
		preset    = flag.String("preset", "medium", "x265 encoding preset")
		tolerance = flag.String("tolerance", "default", "verification tolerance preset: strict, default, relaxed")
		noVerify  = flag.Bool("no-verify", false, "skip metadata verification after conversion")
		noMeta    = flag.Bool("no-metadata", false, "skip metadata preservation")
		library   = flag.String("library", "", "treat argument-free runs as a library folder export at this path")
		resume    = flag.Bool("resume", false, "resume the interrupted or paused session instead of starting a new one")
		cancel    = flag.Bool("cancel", false, "cancel the resumable session and clean up its temp files")
	)
	flag.Parse()

	cfg := config.Load()
	cfg.CRF = *crf
	cfg.Preset = *preset
	cfg.OutputDir = *outDir
	cfg.OutputSuffix = *suffix
	cfg.TolerancePreset = *tolerance
	cfg.VerifyMetadata = !*noVerify
	cfg.PreserveMetadata = !*noMeta

	sessions, err := session.NewManager(cfg.SessionDir, cfg.AutoSaveInterval)
	if err != nil {
		log.Fatalf("failed to init session manager: %v", err)
	}
	if removed := sessions.CleanupOrphanedTempFiles(); len(removed) > 0 {
		log.Printf("removed %d orphaned temp files", len(removed))
	}

	if *cancel {
		if err := cancelResumable(sessions); err != nil {
			log.Fatalf("cancel failed: %v", err)
		}
		return
	}

	converter.Register(converter.NewHEVCConverter())

	if *resume {
		if err := resumeSession(sessions); err != nil {
			log.Fatalf("resume failed: %v", err)
		}
	} else {
		paths, err := collectInputs(flag.Args(), *library)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if len(paths) == 0 {
			fmt.Fprintln(os.Stderr, "usage: vid2hevc-batch [flags] <video>... | -library <dir> | -resume | -cancel")
			flag.PrintDefaults()
			os.Exit(2)
		}
		_, err = sessions.CreateSession(paths, *outDir, session.ConfigSnapshot{
			Mode:             "batch",
			Quality:          *crf,
			Preset:           *preset,
			OutputSuffix:     *suffix,
			PreserveMetadata: cfg.PreserveMetadata,
			Verify:           cfg.VerifyMetadata,
		})
		if err != nil {
			log.Fatalf("create session failed: %v", err)
		}
	}

	if err := run(cfg, sessions); err != nil {
		log.Fatalf("%v", err)
	}
}

// collectInputs resolves the work list from positional args or a library
// folder export.
func collectInputs(args []string, library string) ([]string, error) {
	if library != "" {
		return collectLibrary(library)
	}
	var paths []string
	for _, arg := range args {
		if !utils.IsVideo(arg) {
			log.Printf("skipping non-video argument: %s", arg)
			continue
		}
		if _, err := os.Stat(arg); err != nil {
			return nil, fmt.Errorf("input not found: %s", arg)
		}
		paths = append(paths, arg)
	}
	return paths, nil
}

// collectLibrary walks a library folder export, capturing each asset's
// metadata snapshot before conversion so there is a pre-conversion record of
// what must survive.
func collectLibrary(library string) ([]string, error) {
	ctx := context.Background()
	extractor := photos.NewFolderExtractor(library)
	infos, err := extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("library extraction failed: %w", err)
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Path)
		snap, err := extractor.CaptureSnapshot(ctx, info)
		if err != nil {
			log.Printf("metadata capture failed for %s: %v", info.Path, err)
			continue
		}
		log.Printf("captured metadata for %s: albums=%v created=%s gps=%v keywords=%d",
			snap.Filename, snap.Albums, formatDate(snap.CreatedAt), snap.GPS != nil, len(snap.Keywords))
	}
	return paths, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}

func resumeSession(sessions *session.Manager) error {
	if !sessions.HasResumableSession() {
		return fmt.Errorf("no resumable session")
	}
	return sessions.ResumeSession()
}

func cancelResumable(sessions *session.Manager) error {
	if !sessions.HasResumableSession() {
		return fmt.Errorf("no resumable session")
	}
	return sessions.CancelSession()
}

func run(cfg *config.Config, sessions *session.Manager) error {
	state, ok := sessions.CurrentSession()
	if !ok {
		return fmt.Errorf("no active session")
	}
	// the session snapshot is authoritative, so a resumed run keeps the
	// parameters it was started with
	if state.Config.Quality > 0 {
		cfg.CRF = state.Config.Quality
	}
	if state.Config.Preset != "" {
		cfg.Preset = state.Config.Preset
	}
	cfg.OutputDir = state.OutputDir
	cfg.OutputSuffix = state.Config.OutputSuffix
	cfg.PreserveMetadata = state.Config.PreserveMetadata
	cfg.VerifyMetadata = state.Config.Verify

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted; session saved, rerun with -resume to continue")
		if err := sessions.PauseSession(); err != nil {
			log.Printf("pause failed: %v", err)
		}
		stop()
	}()

	driver := worker.NewDriver(cfg, sessions)
	bar := progressbar.Default(int64(state.TotalVideos), "converting")
	_ = bar.Add(len(state.Completed) + len(state.Failed))

	var failures int
	for {
		if ctx.Err() != nil {
			return nil
		}
		entry, ok := sessions.ClaimNextVideo()
		if !ok {
			break
		}
		bar.Describe(fmt.Sprintf("converting %s", entry.SourcePath))
		result, vres, _, err := driver.Convert(ctx, &db.FileIndex{FilePath: entry.SourcePath})
		if errors.Is(err, worker.ErrAlreadyHEVC) {
			log.Printf("skipping %s: already HEVC", entry.SourcePath)
			if markErr := sessions.MarkVideoSkipped(entry.SourcePath, err.Error()); markErr != nil {
				log.Printf("session update failed: %v", markErr)
			}
		} else if err != nil {
			failures++
			if markErr := sessions.MarkVideoFailed(entry.SourcePath, err.Error()); markErr != nil {
				log.Printf("session update failed: %v", markErr)
			}
			log.Printf("convert failed for %s: %v", entry.SourcePath, err)
		} else {
			if markErr := sessions.MarkVideoCompleted(entry.SourcePath, result.OriginalSize, result.ConvertedSize); markErr != nil {
				log.Printf("session update failed: %v", markErr)
			}
			reportVerification(entry.SourcePath, vres)
		}
		_ = bar.Add(1)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := sessions.CompleteSession(); err != nil {
		return err
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d videos failed", failures, state.TotalVideos)
	}
	fmt.Printf("converted %d videos\n", state.TotalVideos)
	return nil
}

func reportVerification(path string, vres *verify.Result) {
	if vres == nil {
		return
	}
	if vres.Passed {
		log.Printf("verification passed for %s (%d checks)", path, len(vres.Checks))
		return
	}
	log.Printf("verification FAILED for %s:\n%s", path, vres.Summary())
}
