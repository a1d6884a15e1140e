package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resona-backend/internal/client"
	"resona-backend/internal/models"
	"resona-backend/internal/session"
	"resona-backend/internal/stream"
)

func main() {
	gatewayURL := flag.String("gateway", "http://localhost:8080", "gateway base URL")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall analysis timeout")
	follow := flag.Bool("follow", false, "after completion, replay segments on a playback cursor")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] <youtube-url>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	videoURL := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	store := session.NewStore()
	apiClient := client.New(*gatewayURL)
	transport := stream.NewWebSocketTransport()

	openChannel := func(ctx context.Context, wsURL, jobID string, handlers stream.Handlers) session.ChannelHandle {
		return stream.Open(ctx, wsURL, jobID, transport, handlers)
	}

	sess := session.NewSession(videoURL, apiClient, store, openChannel)
	sess.Start(ctx)
	defer sess.Close()

	printProgress(ctx, store, sess.Done())

	job := store.Job()
	if job.Status == models.StatusError {
		if err := store.Err(); err != nil && err.Retryable {
			log.Fatalf("Analysis failed: %s (transient, rerun to try again)", job.Error)
		}
		log.Fatalf("Analysis failed: %s", job.Error)
	}
	if job.Status != models.StatusComplete {
		log.Fatalf("Analysis did not finish: status %s", job.Status)
	}

	printSummary(store)

	if *follow {
		replay(ctx, store)
	}
}

// printProgress polls the store until the session finishes, reprinting the
// status line whenever status, progress, or segment count changes.
func printProgress(ctx context.Context, store *session.Store, done <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastLine string
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := store.Job()
			line := fmt.Sprintf("[%s] %d%% (%d segments)", job.Status, job.Progress, len(store.Segments()))
			if line != lastLine {
				log.Println(line)
				lastLine = line
			}
		}
	}
}

func printSummary(store *session.Store) {
	analysis := store.Analysis()
	if analysis == nil {
		log.Println("Complete, but no analysis payload was returned")
		return
	}

	fmt.Printf("\n%s\n", analysis.Video.Title)
	fmt.Printf("Duration: %.0fs, %d segments\n\n", store.Duration(), len(analysis.Segments))

	fmt.Printf("Overall emotion: %s (%.0f%% confidence)\n\n", analysis.OverallEmotion.Primary, analysis.OverallEmotion.Confidence*100)

	for _, seg := range analysis.Segments {
		fmt.Printf("  %6.1fs - %6.1fs  %-12s %-6s confidence %.2f\n",
			seg.StartTime, seg.EndTime,
			seg.Emotion.Primary, dominantBand(seg.Brainwaves),
			seg.Emotion.Confidence)
	}
}

// replay walks a simulated playback cursor over the finished analysis and
// prints the active segment at each step.
func replay(ctx context.Context, store *session.Store) {
	duration := store.Duration()
	if duration <= 0 {
		return
	}

	fmt.Println("\nReplaying...")
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStart := -1.0
	for t := 0.0; t <= duration; t += 1.0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		store.SetCurrentTime(t)
		seg := store.CurrentSegment()
		if seg == nil || seg.StartTime == lastStart {
			continue
		}
		lastStart = seg.StartTime
		fmt.Printf("  %6.1fs  %s / %s\n", t, seg.Emotion.Primary, dominantBand(seg.Brainwaves))
	}
}

// dominantBand names the brainwave band with the highest amplitude.
func dominantBand(b models.BrainwaveState) string {
	bands := []struct {
		name  string
		value float64
	}{
		{"delta", b.Delta},
		{"theta", b.Theta},
		{"alpha", b.Alpha},
		{"beta", b.Beta},
		{"gamma", b.Gamma},
	}
	best := bands[0]
	for _, band := range bands[1:] {
		if band.value > best.value {
			best = band
		}
	}
	return best.name
}
