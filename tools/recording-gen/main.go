// recording-gen generates synthetic recordings from text for exercising
// replay and follow without a hook adapter.
//
// Each line of input text becomes typed keystrokes (with Shift presses and
// occasional corrected typos) followed by a left click.
//
// Usage:
//
//	go run ./tools/recording-gen -text "Hello, world" -output hello.jsonl
//	go run ./tools/recording-gen -input notes.txt -profile fast -seed 7
//	go run ./tools/recording-gen -input notes.txt -live -output live.jsonl
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strings"
	"time"
	"unicode"

	"keyjournal/internal/keystroke"
	"keyjournal/internal/recording"
)

// TypingProfile sets the timing of generated keystrokes.
type TypingProfile struct {
	Name             string
	MedianIntervalMs float64
	IntervalStdDevMs float64
	TypoProbability  float64
	PauseProbability float64
	PauseMaxMs       float64
}

var profiles = map[string]TypingProfile{
	"normal": {
		Name:             "Normal typist",
		MedianIntervalMs: 180,
		IntervalStdDevMs: 90,
		TypoProbability:  0.03,
		PauseProbability: 0.02,
		PauseMaxMs:       3000,
	},
	"fast": {
		Name:             "Fast typist",
		MedianIntervalMs: 90,
		IntervalStdDevMs: 35,
		TypoProbability:  0.015,
		PauseProbability: 0.01,
		PauseMaxMs:       1500,
	},
	"hunt-and-peck": {
		Name:             "Hunt and peck",
		MedianIntervalMs: 450,
		IntervalStdDevMs: 300,
		TypoProbability:  0.06,
		PauseProbability: 0.05,
		PauseMaxMs:       6000,
	},
}

type generator struct {
	w       *recording.Writer
	profile TypingProfile
	rng     *rand.Rand
	now     time.Time
	live    bool
	title   string
	events  int
}

func main() {
	output := flag.String("output", "-", "output file (- for stdout)")
	input := flag.String("input", "", "text file to type, one session per line")
	text := flag.String("text", "", "text to type when -input is not set")
	profileName := flag.String("profile", "normal", "typing profile: normal, fast, hunt-and-peck")
	seed := flag.Uint64("seed", 1, "random seed")
	title := flag.String("title", "Untitled - Notepad", "window title attached to the first event of each line")
	live := flag.Bool("live", false, "write events in real time, for follow")
	flag.Parse()

	profile, ok := profiles[*profileName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown profile: %s\n", *profileName)
		os.Exit(1)
	}

	lines, err := readLines(*input, *text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	start := time.Now().UTC().Truncate(time.Millisecond)
	w, err := recording.NewWriter(out, recording.Header{StartedAt: start, Source: "recording-gen"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	g := newGenerator(w, profile, *seed, start, *title)
	g.live = *live
	for _, line := range lines {
		if err := g.typeLine(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Fprintf(os.Stderr, "Generated %d events for %d sessions (%s)\n", g.events, len(lines), profile.Name)
}

func newGenerator(w *recording.Writer, profile TypingProfile, seed uint64, start time.Time, title string) *generator {
	return &generator{
		w:       w,
		profile: profile,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:     start,
		title:   title,
	}
}

func readLines(path, text string) ([]string, error) {
	if path == "" {
		if text == "" {
			return nil, fmt.Errorf("one of -input or -text is required")
		}
		return strings.Split(text, "\n"), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	return lines, s.Err()
}

func (g *generator) typeLine(line string) error {
	first := true
	for _, r := range line {
		vk, shift, ok := keyFor(r)
		if !ok {
			continue
		}

		if g.rng.Float64() < g.profile.TypoProbability {
			if err := g.tap(keystroke.VKA+keystroke.VK(g.rng.IntN(26)), false, ""); err != nil {
				return err
			}
			if err := g.tap(keystroke.VKBack, false, ""); err != nil {
				return err
			}
		}

		title := ""
		if first {
			title = g.title
			first = false
		}
		if err := g.tap(vk, shift, title); err != nil {
			return err
		}
	}

	g.advance()
	return g.emit(recording.Event{
		Message: "lbuttondown",
		X:       100 + g.rng.IntN(800),
		Y:       100 + g.rng.IntN(500),
	})
}

// tap presses and releases vk, wrapped in Shift when needed.
func (g *generator) tap(vk keystroke.VK, shift bool, title string) error {
	g.advance()
	if shift {
		if err := g.emit(recording.Event{Message: "keydown", VK: int(keystroke.VKLShift)}); err != nil {
			return err
		}
	}
	if err := g.emit(recording.Event{Message: "keydown", VK: int(vk), Title: title}); err != nil {
		return err
	}
	g.now = g.now.Add(time.Duration(30+g.rng.IntN(60)) * time.Millisecond)
	if err := g.emit(recording.Event{Message: "keyup", VK: int(vk)}); err != nil {
		return err
	}
	if shift {
		return g.emit(recording.Event{Message: "keyup", VK: int(keystroke.VKLShift)})
	}
	return nil
}

func (g *generator) advance() {
	ms := g.profile.MedianIntervalMs + g.rng.NormFloat64()*g.profile.IntervalStdDevMs
	ms = math.Max(ms, 20)
	if g.rng.Float64() < g.profile.PauseProbability {
		ms += g.rng.Float64() * g.profile.PauseMaxMs
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if g.live {
		time.Sleep(d)
		g.now = time.Now().UTC()
		return
	}
	g.now = g.now.Add(d)
}

func (g *generator) emit(e recording.Event) error {
	e.Time = g.now
	g.events++
	return g.w.Write(e)
}

// keyFor returns the key and Shift state that type r on a US layout with
// Caps Lock off.
func keyFor(r rune) (keystroke.VK, bool, bool) {
	switch {
	case r == ' ':
		return keystroke.VKSpace, false, true
	case r == '\t':
		return keystroke.VKTab, false, true
	case r >= 'a' && r <= 'z':
		return keystroke.VK(unicode.ToUpper(r)), false, true
	case r >= 'A' && r <= 'Z':
		return keystroke.VK(r), true, true
	}

	for vk, pair := range keystroke.USLayout.Symbols {
		if pair.Plain == r {
			return vk, false, true
		}
		if pair.Shifted == r {
			return vk, true, true
		}
	}
	return 0, false, false
}
