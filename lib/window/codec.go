package window

import (
	"spl/lib/checkpoint"
)

//Codec converts tuples or partition keys to bytes for checkpoints
type Codec[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

//CBOR is the default codec
type CBOR[V any] struct{}

func (CBOR[V]) Marshal(v V) ([]byte, error) {
	return checkpoint.Marshal(v)
}

func (CBOR[V]) Unmarshal(data []byte) (V, error) {
	var v V
	err := checkpoint.Unmarshal(data, &v)
	return v, err
}
