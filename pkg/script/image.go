package script

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/zurustar/autoscript/pkg/opcode"
)

// imageMagic identifies a compiled script image.
const imageMagic = "AUTOSCRIPT"

// ImageVersion is bumped whenever the image layout or the instruction set changes.
const ImageVersion = 1

// ErrImageMismatch is returned when an image does not carry the expected
// magic or version.
var ErrImageMismatch = errors.New("script image: magic or version mismatch")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("script: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type imageFile struct {
	Magic      string         `cbor:"1,keyasint"`
	Version    int            `cbor:"2,keyasint"`
	SourceHash []byte         `cbor:"3,keyasint,omitempty"`
	Code       []imageOp      `cbor:"4,keyasint"`
	Literals   []imageLiteral `cbor:"5,keyasint"`
	Labels     map[string]int `cbor:"6,keyasint"`
}

type imageOp struct {
	_       struct{} `cbor:",toarray"`
	Cmd     uint8
	Operand int
	Argc    int
}

type imageLiteral struct {
	Kind uint8    `cbor:"1,keyasint"`
	Int  *big.Int `cbor:"2,keyasint,omitempty"`
	Str  string   `cbor:"3,keyasint,omitempty"`
}

// MarshalImage encodes s as canonical CBOR. Equal scripts encode to equal bytes.
func MarshalImage(s *Script) ([]byte, error) {
	img := imageFile{
		Magic:    imageMagic,
		Version:  ImageVersion,
		Code:     make([]imageOp, len(s.code)),
		Literals: make([]imageLiteral, len(s.literals)),
		Labels:   s.labels,
	}
	if s.sourceHash != [sha256.Size]byte{} {
		img.SourceHash = s.sourceHash[:]
	}
	for i, op := range s.code {
		img.Code[i] = imageOp{Cmd: uint8(op.Cmd), Operand: op.Operand, Argc: op.Argc}
	}
	for i, lit := range s.literals {
		img.Literals[i] = imageLiteral{Kind: uint8(lit.Kind), Int: lit.Int, Str: lit.Str}
	}

	data, err := cborEncMode.Marshal(&img)
	if err != nil {
		return nil, fmt.Errorf("script: marshal image: %w", err)
	}
	return data, nil
}

// UnmarshalImage decodes and validates an image produced by MarshalImage.
func UnmarshalImage(data []byte) (*Script, error) {
	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("script: unmarshal image: %w", err)
	}
	if img.Magic != imageMagic || img.Version != ImageVersion {
		return nil, ErrImageMismatch
	}

	s := &Script{
		code:     make([]opcode.OpCode, len(img.Code)),
		literals: make([]opcode.Literal, len(img.Literals)),
		labels:   make(map[string]int, len(img.Labels)),
	}
	for i, op := range img.Code {
		s.code[i] = opcode.OpCode{Cmd: opcode.Cmd(op.Cmd), Operand: op.Operand, Argc: op.Argc}
	}
	for i, lit := range img.Literals {
		switch opcode.LiteralKind(lit.Kind) {
		case opcode.LiteralInt:
			v := lit.Int
			if v == nil {
				v = new(big.Int)
			}
			if !opcode.InInt128Range(v) {
				return nil, fmt.Errorf("script: literal %d out of 128-bit range", i)
			}
			s.literals[i] = opcode.IntLiteral(v)
		case opcode.LiteralString:
			s.literals[i] = opcode.StringLiteral(lit.Str)
		case opcode.LiteralNone:
			s.literals[i] = opcode.NoneLiteral()
		default:
			return nil, fmt.Errorf("script: literal %d has unknown kind %d", i, lit.Kind)
		}
	}
	for name, pc := range img.Labels {
		s.labels[name] = pc
	}
	if len(img.SourceHash) > 0 {
		if len(img.SourceHash) != sha256.Size {
			return nil, fmt.Errorf("script: source hash has %d bytes", len(img.SourceHash))
		}
		copy(s.sourceHash[:], img.SourceHash)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return s, nil
}

// Equal reports whether two scripts have identical code, literals, and labels.
// The source hash is not compared.
func (s *Script) Equal(o *Script) bool {
	if len(s.code) != len(o.code) || len(s.literals) != len(o.literals) || len(s.labels) != len(o.labels) {
		return false
	}
	for i := range s.code {
		if s.code[i] != o.code[i] {
			return false
		}
	}
	for i := range s.literals {
		if !s.literals[i].Equal(o.literals[i]) {
			return false
		}
	}
	for name, pc := range s.labels {
		if opc, ok := o.labels[name]; !ok || opc != pc {
			return false
		}
	}
	return true
}

// MatchesSource reports whether s was compiled from src.
func (s *Script) MatchesSource(src []byte) bool {
	h := HashSource(src)
	return bytes.Equal(s.sourceHash[:], h[:])
}
