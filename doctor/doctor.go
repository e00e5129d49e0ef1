// Package doctor runs interactive diagnostics over the same collaborators
// the app itself uses: hotkey backend, audio capture, transcription, and
// clipboard delivery.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"voco/audio"
	"voco/clipboard"
	"voco/config"
	"voco/hotkey"
	"voco/transcriber"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(cfg config.Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("voco doctor - interactive system diagnostics")
	fmt.Println("============================================")

	allPass := true
	if !checkHotkey(cfg) {
		allPass = false
	}
	var samples []float32
	var rate float64
	if allPass {
		var ok bool
		samples, rate, ok = checkMicrophone()
		if !ok {
			allPass = false
		}
	}
	if allPass && !checkTranscription(samples, rate) {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[1/4] Hotkey detection")

	chord, err := hotkey.Parse(cfg.DictationKey)
	if err != nil {
		fmt.Printf("  FAIL: bad dictation_key %q: %v\n", cfg.DictationKey, err)
		return false
	}
	fmt.Printf("Press %s...\n", chord)

	pressed := make(chan struct{}, 1)
	unbind, err := hotkey.XBackend{}.Bind(chord, func() {
		select {
		case pressed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer unbind()

	select {
	case <-pressed:
		fmt.Println("  PASS: hotkey detected")
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone() ([]float32, float64, bool) {
	fmt.Println()
	fmt.Println("[2/4] Microphone capture")

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, 0, false
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return nil, 0, false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return nil, 0, false
	}
	for _, d := range devices {
		suffix := ""
		if d.Bluetooth {
			suffix = " (bluetooth - expect a warmup delay)"
		}
		fmt.Printf("  device: %s%s\n", d.Name, suffix)
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	sess, err := actx.Open(audio.Source{Kind: audio.SourceMicrophone})
	if err != nil {
		fmt.Printf("  FAIL: cannot open capture: %v\n", err)
		return nil, 0, false
	}

	var samples []float32
	var rate float64
	deadline := time.After(3 * time.Second)
	fmt.Print("  Recording")
	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()

loop:
	for {
		select {
		case chunk, ok := <-sess.Chunks():
			if !ok {
				break loop
			}
			samples = append(samples, chunk.Samples...)
			rate = chunk.SampleRate
		case <-tick.C:
			fmt.Print(".")
		case <-deadline:
			break loop
		}
	}
	sess.Close()
	fmt.Println(" done")

	if len(samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return nil, 0, false
	}
	fmt.Printf("  PASS: captured %.1fs of audio\n", float64(len(samples))/rate)
	return samples, rate, true
}

func checkTranscription(samples []float32, rate float64) bool {
	fmt.Println()
	fmt.Println("[3/4] Transcription")

	trans, err := transcriber.New()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  provider: %s\n", trans.Name())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	text, err := trans.Transcribe(ctx, samples, rate)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard")

	testStr := fmt.Sprintf("voco-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung?)")
		return false
	}
}
