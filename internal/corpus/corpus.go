package corpus

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"sgns/internal/dataset"
)

var (
	ErrMalformed     = errors.New("malformed corpus file")
	ErrMissingCount  = errors.New("vocabulary word has no count")
	ErrEmptyCounts   = errors.New("word counts sum to zero")
	ErrOutOfVocab    = errors.New("word id out of vocabulary")
	ErrRaggedContext = errors.New("context lengths differ")
	ErrUnknownWord   = errors.New("unknown word")
)

// Vocabulary maps ids to words. The id of a word is its position.
type Vocabulary struct {
	words []string
	index map[string]int
}

func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{
		words: append([]string(nil), words...),
		index: make(map[string]int, len(words)),
	}
	for i, w := range v.words {
		if _, dup := v.index[w]; !dup {
			v.index[w] = i
		}
	}
	return v
}

func (v *Vocabulary) Size() int { return len(v.words) }

func (v *Vocabulary) Word(id int) string { return v.words[id] }

func (v *Vocabulary) Words() []string { return append([]string(nil), v.words...) }

func (v *Vocabulary) Index(word string) (int, bool) {
	id, ok := v.index[word]
	return id, ok
}

// WordCounts holds raw occurrence counts.
type WordCounts map[string]int

// Corpus is what training needs besides the pairs themselves.
type Corpus struct {
	Vocab  *Vocabulary
	Counts WordCounts

	// Freq is the normalised frequency of each id, summing to one.
	Freq []float64
	// Subsample is the probability of dropping a pair centered on each id.
	Subsample []float64
}

// Load reads idx2word.dat and wc.dat from dir and derives the frequency and
// subsampling vectors for threshold t.
func Load(dir string, t float64) (*Corpus, error) {
	vocab, err := LoadVocabulary(idx2WordPath(dir))
	if err != nil {
		return nil, err
	}
	counts, err := LoadWordCounts(wordCountPath(dir))
	if err != nil {
		return nil, err
	}
	return New(vocab, counts, t)
}

func New(vocab *Vocabulary, counts WordCounts, t float64) (*Corpus, error) {
	wf := make([]float64, vocab.Size())
	for i := range wf {
		c, ok := counts[vocab.Word(i)]
		if !ok {
			return nil, errors.Wrapf(ErrMissingCount, "word %q (id %d)", vocab.Word(i), i)
		}
		wf[i] = float64(c)
	}
	total := floats.Sum(wf)
	if total <= 0 {
		return nil, ErrEmptyCounts
	}
	floats.Scale(1/total, wf)

	return &Corpus{
		Vocab:     vocab,
		Counts:    counts,
		Freq:      wf,
		Subsample: SubsampleProbs(wf, t),
	}, nil
}

// SubsampleProbs returns clip(1 - sqrt(t/f), 0, 1) per entry. Zero
// frequencies and a non-positive threshold give zero.
func SubsampleProbs(wf []float64, t float64) []float64 {
	ws := make([]float64, len(wf))
	if t <= 0 {
		return ws
	}
	for i, f := range wf {
		if f <= 0 {
			continue
		}
		ws[i] = math.Min(math.Max(1-math.Sqrt(t/f), 0), 1)
	}
	return ws
}

func LoadVocabulary(path string) (*Vocabulary, error) {
	v, err := loadPickle(path)
	if err != nil {
		return nil, err
	}
	s, ok := asSequence(v)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "%s: expected a list, got %T", path, v)
	}
	words := make([]string, s.Len())
	for i := range words {
		w, ok := s.Get(i).(string)
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: entry %d is %T, not a string", path, i, s.Get(i))
		}
		words[i] = w
	}
	return NewVocabulary(words), nil
}

// LoadWordCounts reads the pickled word -> count dict.
func LoadWordCounts(path string) (WordCounts, error) {
	v, err := loadPickle(path)
	if err != nil {
		return nil, err
	}
	d, ok := v.(dictWithKeys)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "%s: expected a dict, got %T", path, v)
	}
	counts := make(WordCounts, len(d.Keys()))
	for _, k := range d.Keys() {
		word, ok := k.(string)
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: key %v is %T, not a string", path, k, k)
		}
		raw, _ := d.Get(k)
		n, ok := asInt(raw)
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: count of %q is %T", path, word, raw)
		}
		counts[word] = n
	}
	return counts, nil
}

type dictWithKeys interface {
	mapping
	Keys() []interface{}
}

// LoadPairs reads train.dat: a list of (center, [context...]) tuples.
func LoadPairs(path string) ([]dataset.Pair, error) {
	v, err := loadPickle(path)
	if err != nil {
		return nil, err
	}
	s, ok := asSequence(v)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "%s: expected a list, got %T", path, v)
	}
	pairs := make([]dataset.Pair, s.Len())
	for i := range pairs {
		item, ok := asSequence(s.Get(i))
		if !ok || item.Len() != 2 {
			return nil, errors.Wrapf(ErrMalformed, "%s: pair %d is not a 2-tuple", path, i)
		}
		center, ok := asInt(item.Get(0))
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: pair %d center is %T", path, i, item.Get(0))
		}
		context, ok := asInts(item.Get(1))
		if !ok {
			return nil, errors.Wrapf(ErrMalformed, "%s: pair %d context is not a list of ints", path, i)
		}
		pairs[i] = dataset.Pair{Center: center, Context: context}
	}
	return pairs, nil
}

// CheckPairs verifies every id is inside the vocabulary and every context
// has the same length. It returns that length.
func CheckPairs(pairs []dataset.Pair, vocabSize int) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	width := len(pairs[0].Context)
	for i, p := range pairs {
		if len(p.Context) != width {
			return 0, errors.Wrapf(ErrRaggedContext, "pair %d has %d context words, want %d", i, len(p.Context), width)
		}
		if p.Center < 0 || p.Center >= vocabSize {
			return 0, errors.Wrapf(ErrOutOfVocab, "pair %d center %d", i, p.Center)
		}
		for _, o := range p.Context {
			if o < 0 || o >= vocabSize {
				return 0, errors.Wrapf(ErrOutOfVocab, "pair %d context word %d", i, o)
			}
		}
	}
	return width, nil
}
