package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftEqual(t *testing.T) {
	base := Draft{Title: "A", Memo: "B"}

	t.Run("Should be equal after editing a field back to its value", func(t *testing.T) {
		edited, err := base.With(FieldTitle, "A2")
		require.NoError(t, err)
		edited, err = edited.With(FieldTitle, "A")
		require.NoError(t, err)

		assert.True(t, base.Equal(edited))
	})

	t.Run("Should differ after changing the body", func(t *testing.T) {
		edited, err := base.With(FieldMemo, "C")
		require.NoError(t, err)

		assert.False(t, base.Equal(edited))
		assert.Equal(t, "B", base.Memo)
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		_, err := base.With(Field("created"), "x")
		assert.Error(t, err)
	})
}

func TestParseSortField(t *testing.T) {
	for _, name := range []string{"created", "title", "memo"} {
		f, err := ParseSortField(name)
		require.NoError(t, err)
		assert.Equal(t, SortField(name), f)
	}

	_, err := ParseSortField("favourite")
	assert.Error(t, err)
}

func TestMemoDecodesID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "Should keep a string id", id: `"7f3c"`, want: "7f3c"},
		{name: "Should accept an integer id", id: `5`, want: "5"},
		{name: "Should keep large integer ids exact", id: `9007199254740993`, want: "9007199254740993"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"id":` + tt.id + `,"title":"a","memo":"b","favourite":true,"created":"2023-01-02T03:04:05.123456Z"}`
			var m Memo
			require.NoError(t, json.Unmarshal([]byte(data), &m))

			assert.Equal(t, tt.want, m.ID)
			assert.Equal(t, "a", m.Title)
			assert.Equal(t, "b", m.Memo)
			assert.True(t, m.Favourite)
			assert.Equal(t, 2023, m.Created.Year())
		})
	}

	t.Run("Should reject other id types", func(t *testing.T) {
		var m Memo
		assert.Error(t, json.Unmarshal([]byte(`{"id":true,"title":"a"}`), &m))
	})
}
