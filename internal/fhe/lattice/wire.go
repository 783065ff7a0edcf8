// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lattice

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/bgv"

	"github.com/luxfi/fhedoc/internal/fhe"
)

// The installed evaluation key has no counterpart anywhere in the
// retrieved pack (the teacher never serializes an FHE key), so the wire
// shape below is bespoke: the BGV parameter literal as JSON, followed by
// the length-prefixed binary encodings of the public key and
// relinearization key. It exists only to make §4.3's "decode a blob
// into an EvalKey" operation concrete; see DESIGN.md.

func marshalWire(lit bgv.ParametersLiteral, pk *rlwe.PublicKey, rlk *rlwe.RelinearizationKey) ([]byte, error) {
	litJSON, err := json.Marshal(lit)
	if err != nil {
		return nil, fmt.Errorf("lattice: marshal params: %w", err)
	}
	pkBytes, err := pk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("lattice: marshal public key: %w", err)
	}
	rlkBytes, err := rlk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("lattice: marshal relinearization key: %w", err)
	}

	var buf bytes.Buffer
	for _, part := range [][]byte{litJSON, pkBytes, rlkBytes} {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(part)))
		buf.Write(lenBuf[:])
		buf.Write(part)
	}
	return buf.Bytes(), nil
}

func readPart(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	part := make([]byte, n)
	if _, err := io.ReadFull(r, part); err != nil {
		return nil, err
	}
	return part, nil
}

func unmarshalWire(blob []byte) (bgv.ParametersLiteral, *rlwe.PublicKey, *rlwe.RelinearizationKey, error) {
	r := bytes.NewReader(blob)

	litJSON, err := readPart(r)
	if err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: read params: %w", err)
	}
	pkBytes, err := readPart(r)
	if err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: read public key: %w", err)
	}
	rlkBytes, err := readPart(r)
	if err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: read relinearization key: %w", err)
	}

	var lit bgv.ParametersLiteral
	if err := json.Unmarshal(litJSON, &lit); err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: unmarshal params: %w", err)
	}
	pk := &rlwe.PublicKey{}
	if err := pk.UnmarshalBinary(pkBytes); err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: unmarshal public key: %w", err)
	}
	rlk := &rlwe.RelinearizationKey{}
	if err := rlk.UnmarshalBinary(rlkBytes); err != nil {
		return bgv.ParametersLiteral{}, nil, nil, fmt.Errorf("lattice: unmarshal relinearization key: %w", err)
	}
	return lit, pk, rlk, nil
}

// DecodePlain decodes a plain (uncompressed) evaluation-key blob: the
// §4.3 "evaluation key" shape.
func DecodePlain(blob []byte) (fhe.EvalKey, error) {
	lit, pk, rlk, err := unmarshalWire(blob)
	if err != nil {
		return nil, err
	}
	params, err := bgv.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, fmt.Errorf("lattice: parameters: %w", err)
	}
	return New(params, pk, rlk)
}

// DecodeCompressed decodes a gzip-compressed evaluation-key blob: the
// §4.3 "compressed evaluation key" shape.
func DecodeCompressed(blob []byte) (fhe.EvalKey, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("lattice: decode compressed key: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("lattice: decode compressed key: %w", err)
	}
	return DecodePlain(raw)
}

// EncodePlain is the test-helper / client-side mirror of DecodePlain:
// it produces an installable plain blob from key material.
func EncodePlain(lit bgv.ParametersLiteral, pk *rlwe.PublicKey, rlk *rlwe.RelinearizationKey) ([]byte, error) {
	return marshalWire(lit, pk, rlk)
}

// EncodeCompressed is the test-helper / client-side mirror of
// DecodeCompressed.
func EncodeCompressed(lit bgv.ParametersLiteral, pk *rlwe.PublicKey, rlk *rlwe.RelinearizationKey) ([]byte, error) {
	raw, err := marshalWire(lit, pk, rlk)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("lattice: gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lattice: gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
