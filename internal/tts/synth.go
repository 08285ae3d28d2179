package tts

import (
	"math"
	"strings"
)

// SampleRate for all synthesized audio.
const SampleRate = 44100

// Placeholder synthesis: each word becomes a short shaped sine tone, so
// spoken text is audible as a rhythm without a real speech model. Voice
// names select the base pitch.
const (
	basePitch  = 220.0
	lowPitch   = 180.0
	highPitch  = 260.0
	wordGapSec = 0.060
	amplitude  = 0.25
)

// PreprocessText normalizes raw chat text for synthesis: joins lines,
// expands common abbreviations, and tames repeated punctuation.
func PreprocessText(text string) string {
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	processed := strings.Join(parts, " ")
	processed = expandAbbreviations(processed)
	processed = normalizePunctuation(processed)
	for strings.Contains(processed, "  ") {
		processed = strings.ReplaceAll(processed, "  ", " ")
	}
	return processed
}

var abbreviations = strings.NewReplacer(
	"Dr.", "Doctor",
	"Mr.", "Mister",
	"Mrs.", "Missus",
	"Ms.", "Miss",
	"Prof.", "Professor",
	"Sr.", "Senior",
	"Jr.", "Junior",
	"vs.", "versus",
	"etc.", "et cetera",
	"e.g.", "for example",
	"i.e.", "that is",
)

func expandAbbreviations(text string) string {
	return abbreviations.Replace(text)
}

func normalizePunctuation(text string) string {
	text = strings.ReplaceAll(text, ".  ", ". ")
	text = strings.ReplaceAll(text, "!  ", "! ")
	text = strings.ReplaceAll(text, "?  ", "? ")
	for strings.Contains(text, "!!") {
		text = strings.ReplaceAll(text, "!!", "!")
	}
	for strings.Contains(text, "??") {
		text = strings.ReplaceAll(text, "??", "?")
	}
	return text
}

// SplitSentences breaks preprocessed text at sentence-ending punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i, ch := range runes {
		current.WriteRune(ch)
		if ch == '.' || ch == '!' || ch == '?' {
			atEnd := i == len(runes)-1
			if atEnd || runes[i+1] == ' ' {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func voicePitch(voice string) float64 {
	switch strings.ToLower(voice) {
	case "low":
		return lowPitch
	case "high":
		return highPitch
	default:
		return basePitch
	}
}

// Synthesize renders text as mono float64 samples. Word length sets the
// tone duration, the first letter nudges the pitch so sentences do not
// drone on a single note. Speed scales durations; zero means 1x.
func Synthesize(text, voice string, speed float64) []float64 {
	processed := PreprocessText(text)
	words := strings.Fields(processed)
	if len(words) == 0 {
		return nil
	}
	if speed <= 0 {
		speed = 1.0
	}

	pitch := voicePitch(voice)
	var samples []float64
	for i, word := range words {
		dur := 0.12 + 0.04*float64(len(word))
		if dur > 0.6 {
			dur = 0.6
		}
		dur /= speed

		freq := pitch + 3.0*float64(word[0]%16)
		samples = append(samples, tone(freq, dur)...)

		if i < len(words)-1 {
			gap := int(wordGapSec / speed * SampleRate)
			samples = append(samples, make([]float64, gap)...)
		}
	}
	return samples
}

// tone generates an attack/release shaped sine at unity pitch scale.
func tone(freq, durSec float64) []float64 {
	n := int(durSec * SampleRate)
	buf := make([]float64, n)
	edge := int(0.010 * SampleRate)
	if edge*2 > n {
		edge = n / 2
	}
	phaseInc := freq / SampleRate
	phase := 0.0
	for i := range buf {
		v := amplitude * math.Sin(2*math.Pi*phase)
		if edge > 0 {
			if i < edge {
				v *= float64(i) / float64(edge)
			} else if i >= n-edge {
				v *= float64(n-i) / float64(edge)
			}
		}
		buf[i] = v
		phase += phaseInc
		if phase >= 1.0 {
			phase -= 1.0
		}
	}
	return buf
}
