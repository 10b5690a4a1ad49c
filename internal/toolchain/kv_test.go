package toolchain

import (
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

func TestParseKeyValue(t *testing.T) {
	tests := []struct {
		raw     string
		want    KeyValue
		wantErr bool
	}{
		{raw: ".my_proto.TestMessage:#[derive(Eq, Hash)]", want: KeyValue{Key: ".my_proto.TestMessage", Value: "#[derive(Eq, Hash)]"}},
		{raw: ".:#[serde(rename = \"a:b\")]", want: KeyValue{Key: ".", Value: "#[serde(rename = \"a:b\")]"}},
		{raw: "key:", want: KeyValue{Key: "key"}},
		{raw: "no-separator", wantErr: true},
		{raw: "bad\xff:value", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseKeyValue(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, derrors.CategoryValidation, derrors.GetCategory(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	kvs, err := ParseKeyValues("--type-attribute", []string{"a:1", "b:2"})
	require.NoError(t, err)
	require.Equal(t, []KeyValue{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}, kvs)

	_, err = ParseKeyValues("--type-attribute", []string{"a:1", "broken"})
	require.Error(t, err)
	ce, ok := derrors.AsClassified(err)
	require.True(t, ok)
	flag, _ := ce.Context().GetString("flag")
	require.Equal(t, "--type-attribute", flag)

	kvs, err = ParseKeyValues("--type-attribute", nil)
	require.NoError(t, err)
	require.Nil(t, kvs)
}
