// Copyright (C) 2019-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fhedoc/internal/fhe"
	"github.com/luxfi/fhedoc/internal/fhe/fhetest"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	require := require.New(t)
	d := fhetest.EncryptSeq(fhe.ArityNibble, 9)[0]

	wire, err := fhe.Encode(d)
	require.NoError(err)

	got, err := fhe.Decode(wire, fhetest.NewHandle)
	require.NoError(err)
	require.Equal(d.Arity, got.Arity)
	require.Equal(fhetest.Decrypt(d), fhetest.Decrypt(got))
}

func TestDecode_MalformedBase64(t *testing.T) {
	require := require.New(t)
	_, err := fhe.Decode("not base64!!!", fhetest.NewHandle)
	require.ErrorIs(err, fhe.ErrMalformedCiphertext)
}

func TestDecode_TruncatedPayload(t *testing.T) {
	require := require.New(t)
	// Valid base64 of too few bytes to contain a length header.
	_, err := fhe.Decode("QQ==", fhetest.NewHandle)
	require.ErrorIs(err, fhe.ErrMalformedCiphertext)
}

func TestEncodeSeqDecodeSeq_RoundTrip(t *testing.T) {
	require := require.New(t)
	seq := fhetest.EncryptSeq(fhe.ArityNibble, 1, 2, 3, 4)

	wire, err := fhe.EncodeSeq(seq)
	require.NoError(err)
	require.Len(wire, 4)

	got, err := fhe.DecodeSeq(wire, fhetest.NewHandle)
	require.NoError(err)
	require.Equal([]int{1, 2, 3, 4}, fhetest.DecryptSeq(got))
}
