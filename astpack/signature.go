package astpack

import "fmt"

// SignatureTable assigns dense indices to function signatures in
// declaration order. It is populated once while decoding the Signatures
// section and read-only afterwards, so tree decoders may consult it
// concurrently.
type SignatureTable struct {
	sigs []FunctionSignature
}

// NewSignatureTable creates a table preloaded with sigs in order.
func NewSignatureTable(sigs ...FunctionSignature) *SignatureTable {
	t := &SignatureTable{}
	for _, s := range sigs {
		t.Register(s)
	}
	return t
}

// Register appends sig and returns its assigned index.
func (t *SignatureTable) Register(sig FunctionSignature) uint32 {
	t.sigs = append(t.sigs, sig)
	return uint32(len(t.sigs) - 1)
}

// Len returns the number of registered signatures.
func (t *SignatureTable) Len() int {
	return len(t.sigs)
}

// Get returns the signature at index.
func (t *SignatureTable) Get(index uint32) (FunctionSignature, error) {
	if index >= uint32(len(t.sigs)) {
		return FunctionSignature{}, fmt.Errorf("%w: %d (table size %d)",
			ErrSignatureIndexOutOfRange, index, len(t.sigs))
	}
	return t.sigs[index], nil
}

// Arity returns the parameter count of the signature at index. Tree
// decoders use it to resolve the child count of call-like nodes.
func (t *SignatureTable) Arity(index uint32) (int, error) {
	sig, err := t.Get(index)
	if err != nil {
		return 0, err
	}
	return len(sig.Params), nil
}
