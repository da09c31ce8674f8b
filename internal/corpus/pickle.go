package corpus

import (
	"bufio"
	"io"
	"math/big"
	"os"

	ogórek "github.com/kisielk/og-rek"
	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/pkg/errors"
)

// sequence covers the gopickle list and tuple types.
type sequence interface {
	Len() int
	Get(i int) interface{}
}

// mapping covers the gopickle dict type.
type mapping interface {
	Get(key interface{}) (interface{}, bool)
}

func loadPickle(path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	u := pickle.NewUnpickler(bufio.NewReader(f))
	v, err := u.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to unpickle %s", path)
	}
	return v, nil
}

func asSequence(v interface{}) (sequence, bool) {
	switch s := v.(type) {
	case sequence:
		return s, true
	case []interface{}:
		return sliceSequence(s), true
	}
	return nil, false
}

type sliceSequence []interface{}

func (s sliceSequence) Len() int              { return len(s) }
func (s sliceSequence) Get(i int) interface{} { return s[i] }

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case *big.Int:
		if n.IsInt64() {
			return int(n.Int64()), true
		}
	}
	return 0, false
}

func asInts(v interface{}) ([]int, bool) {
	s, ok := asSequence(v)
	if !ok {
		return nil, false
	}
	out := make([]int, s.Len())
	for i := range out {
		n, ok := asInt(s.Get(i))
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// pickleProtocol is the lowest protocol that writes Go strings as Python 3
// str rather than bytes.
const pickleProtocol = 3

func writePickle(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	if err := encodePickle(f, v); err != nil {
		return errors.Wrapf(err, "failed to pickle %s", path)
	}
	return f.Close()
}

func encodePickle(w io.Writer, v interface{}) error {
	bw := bufio.NewWriter(w)
	enc := ogórek.NewEncoderWithConfig(bw, &ogórek.EncoderConfig{Protocol: pickleProtocol})
	if err := enc.Encode(v); err != nil {
		return err
	}
	return bw.Flush()
}
