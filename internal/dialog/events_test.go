package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/WishlistBot/internal/session"
)

func TestParseAction(t *testing.T) {
	from := Sender{TelegramID: 10}

	tests := []struct {
		data  string
		kind  Kind
		id    int64
		field session.Field
	}{
		{data: "menu", kind: KindMenu},
		{data: "cancel", kind: KindMenu},
		{data: "add", kind: KindAdd},
		{data: "view", kind: KindView},
		{data: "view_others", kind: KindViewOthers},
		{data: "cancel_delete", kind: KindCancelDelete},
		{data: "skip_price", kind: KindSkipPrice},
		{data: "skip_link", kind: KindSkipLink},
		{data: "view_12", kind: KindViewItem, id: 12},
		{data: "edit_7", kind: KindEditItem, id: 7},
		{data: "edit_price_7", kind: KindEditField, id: 7, field: session.FieldPrice},
		{data: "edit_name_3", kind: KindEditField, id: 3, field: session.FieldName},
		{data: "edit_url_9", kind: KindEditField, id: 9, field: session.FieldURL},
		{data: "save_7", kind: KindSave, id: 7},
		{data: "delete_42", kind: KindDelete, id: 42},
		{data: "confirm_delete_42", kind: KindConfirmDelete, id: 42},
		{data: "view_other_5", kind: KindViewOther, id: 5},
		{data: "reserve_5", kind: KindReserve, id: 5},
		{data: "unreserve_5", kind: KindUnreserve, id: 5},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			ev, err := ParseAction(from, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.id, ev.ItemID)
			assert.Equal(t, tt.field, ev.Field)
			assert.Equal(t, from, ev.From)
		})
	}
}

func TestParseActionRejectsUnknown(t *testing.T) {
	for _, data := range []string{"", "view_", "edit_owner_4", "reserve_x", "reserve_0", "delete_-1", "unknown"} {
		_, err := ParseAction(Sender{}, data)
		assert.Error(t, err, data)
	}
}

func TestActionDataRoundTrip(t *testing.T) {
	builders := map[string]Kind{
		viewItemData(4):                      KindViewItem,
		editItemData(4):                      KindEditItem,
		saveData(4):                          KindSave,
		deleteData(4):                        KindDelete,
		confirmDeleteData(4):                 KindConfirmDelete,
		viewOtherData(4):                     KindViewOther,
		reserveData(4):                       KindReserve,
		unreserveData(4):                     KindUnreserve,
		editFieldData(session.FieldPrice, 4): KindEditField,
	}
	for data, kind := range builders {
		ev, err := ParseAction(Sender{}, data)
		require.NoError(t, err, data)
		assert.Equal(t, kind, ev.Kind, data)
		assert.Equal(t, int64(4), ev.ItemID, data)
	}
}

func TestParseCommand(t *testing.T) {
	tests := map[string]Kind{
		"start":    KindStart,
		"help":     KindHelp,
		"menu":     KindMenu,
		"cancel":   KindMenu,
		"add":      KindAdd,
		"view":     KindView,
		"wishlist": KindView,
		"others":   KindViewOthers,
		"lookup":   KindViewOthers,
		"START":    KindStart,
	}
	for cmd, kind := range tests {
		ev, ok := ParseCommand(Sender{}, cmd)
		require.True(t, ok, cmd)
		assert.Equal(t, kind, ev.Kind, cmd)
	}

	_, ok := ParseCommand(Sender{}, "todo")
	assert.False(t, ok)
}
