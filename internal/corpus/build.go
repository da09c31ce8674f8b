package corpus

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ogórek "github.com/kisielk/og-rek"
	"github.com/pkg/errors"

	"sgns/internal/dataset"
)

const (
	DefaultUnk      = "<UNK>"
	DefaultWindow   = 5
	DefaultMaxVocab = 20000
)

func idx2WordPath(dir string) string  { return filepath.Join(dir, "idx2word.dat") }
func wordCountPath(dir string) string { return filepath.Join(dir, "wc.dat") }
func word2IdxPath(dir string) string  { return filepath.Join(dir, "word2idx.dat") }
func trainPath(dir string) string     { return filepath.Join(dir, "train.dat") }

type BuildOptions struct {
	Window   int
	MaxVocab int
	Unk      string
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Window: DefaultWindow, MaxVocab: DefaultMaxVocab, Unk: DefaultUnk}
}

// Built is a preprocessed corpus ready to be written next to the trainer's inputs.
type Built struct {
	Vocab  *Vocabulary
	Counts WordCounts
	Pairs  []dataset.Pair
}

// Build reads whitespace separated text, one sentence per line. Every token
// becomes a center word whose context is the Window words on each side,
// padded with the unknown word at sentence edges.
func Build(r io.Reader, opts BuildOptions) (*Built, error) {
	if opts.Window <= 0 || opts.MaxVocab <= 0 || opts.Unk == "" {
		return nil, errors.Errorf("invalid build options %+v", opts)
	}

	var sentences [][]string
	counts := WordCounts{opts.Unk: 1}
	order := []string{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		words := strings.Fields(sc.Text())
		if len(words) == 0 {
			continue
		}
		for _, w := range words {
			if _, seen := counts[w]; !seen {
				order = append(order, w)
			}
			counts[w]++
		}
		sentences = append(sentences, words)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read corpus")
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	words := []string{opts.Unk}
	for _, w := range order {
		if len(words) >= opts.MaxVocab {
			break
		}
		if w != opts.Unk {
			words = append(words, w)
		}
	}
	vocab := NewVocabulary(words)

	kept := make(WordCounts, vocab.Size())
	for _, w := range words {
		kept[w] = counts[w]
	}

	var pairs []dataset.Pair
	for _, sent := range sentences {
		ids := make([]int, len(sent))
		for i, w := range sent {
			if id, ok := vocab.Index(w); ok {
				ids[i] = id
			}
		}
		for i := range ids {
			pairs = append(pairs, dataset.Pair{Center: ids[i], Context: window(ids, i, opts.Window)})
		}
	}

	return &Built{Vocab: vocab, Counts: kept, Pairs: pairs}, nil
}

// window returns w ids before i and w ids after i. Id 0 is the unknown word
// and pads both edges.
func window(ids []int, i, w int) []int {
	ctx := make([]int, 2*w)
	for k := 0; k < w; k++ {
		if j := i - w + k; j >= 0 {
			ctx[k] = ids[j]
		}
		if j := i + 1 + k; j < len(ids) {
			ctx[w+k] = ids[j]
		}
	}
	return ctx
}

func BuildFile(path string, opts BuildOptions) (*Built, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open corpus %s", path)
	}
	defer f.Close()
	return Build(f, opts)
}

// Save writes idx2word.dat, wc.dat, word2idx.dat and train.dat into dir.
func (b *Built) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	words := b.Vocab.Words()
	if err := writePickle(idx2WordPath(dir), words); err != nil {
		return err
	}

	wc := make(map[string]int, len(words))
	w2i := make(map[string]int, len(words))
	for i, w := range words {
		wc[w] = b.Counts[w]
		w2i[w] = i
	}
	if err := writePickle(wordCountPath(dir), wc); err != nil {
		return err
	}
	if err := writePickle(word2IdxPath(dir), w2i); err != nil {
		return err
	}

	data := make([]interface{}, len(b.Pairs))
	for i, p := range b.Pairs {
		data[i] = ogórek.Tuple{p.Center, p.Context}
	}
	return writePickle(trainPath(dir), data)
}
