package checkpoint

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

var (
	ErrMarker = errors.New("checkpoint marker mismatch")

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:    cbor.SortCanonical,
		Time:    cbor.TimeRFC3339Nano,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(errors.WithMessage(err, "can't build cbor encode mode"))
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSignedOrFail,
	}.DecMode()
	if err != nil {
		panic(errors.WithMessage(err, "can't build cbor decode mode"))
	}
}

//Marshal encodes v the same way a Checkpoint does
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

//Unmarshal decodes data produced by Marshal
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

//Checkpoint is a sequential stream of cbor items, written by checkpoint and read back by reset
type Checkpoint struct {
	id  int64
	enc *cbor.Encoder
	dec *cbor.Decoder
}

func NewWriter(w io.Writer, id int64) *Checkpoint {
	return &Checkpoint{id: id, enc: encMode.NewEncoder(w)}
}

func NewReader(r io.Reader, id int64) *Checkpoint {
	return &Checkpoint{id: id, dec: decMode.NewDecoder(r)}
}

//ID is the sequence id of the checkpoint
func (c *Checkpoint) ID() int64 {
	return c.id
}

func (c *Checkpoint) Put(v any) error {
	if c.enc == nil {
		return errors.New("checkpoint is opened for reading")
	}
	return errors.WithMessage(c.enc.Encode(v), "can't write checkpoint item")
}

func (c *Checkpoint) Get(v any) error {
	if c.dec == nil {
		return errors.New("checkpoint is opened for writing")
	}
	return errors.WithMessage(c.dec.Decode(v), "can't read checkpoint item")
}

//PutMarker writes a section name used to validate the read side
func (c *Checkpoint) PutMarker(marker string) error {
	return c.Put(marker)
}

func (c *Checkpoint) ExpectMarker(marker string) error {
	var got string
	if err := c.Get(&got); err != nil {
		return err
	}
	if got != marker {
		return errors.WithMessagef(ErrMarker, "expected %q, got %q", marker, got)
	}
	return nil
}
