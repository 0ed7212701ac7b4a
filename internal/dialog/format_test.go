package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/WishlistBot/internal/models"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "19.99 tenge", formatPrice(19.99, "tenge"))
	assert.Equal(t, "1,500 tenge", formatPrice(1500, "tenge"))
	assert.Equal(t, "2.5", formatPrice(2.5, ""))
	assert.Equal(t, "Not specified", formatPrice(0, "tenge"))
}

func TestOwnItemDetailsHidesReservation(t *testing.T) {
	holder := int64(99)
	item := &models.WishlistItem{ID: 1, Name: "Lego (big)", Price: 19.99, URL: "https://example.com/a_(b)", OrderedUserID: &holder}

	text := ownItemDetails(item, "tenge")
	assert.Contains(t, text, `*Name:* Lego \(big\)`)
	assert.Contains(t, text, `*Price:* 19\.99 tenge`)
	assert.Contains(t, text, `[Link](https://example.com/a_(b\))`)
	assert.NotContains(t, text, "reserved")
}

func TestOtherItemDetails(t *testing.T) {
	item := &models.WishlistItem{ID: 1, OwnerID: 1, Name: "Book"}
	assert.Contains(t, otherItemDetails(item, 2, "tenge"), `URL: Not specified`)
	assert.NotContains(t, otherItemDetails(item, 2, "tenge"), "reserved")

	holder := int64(2)
	item.OrderedUserID = &holder
	assert.Contains(t, otherItemDetails(item, 2, "tenge"), "You have reserved this item")
	assert.Contains(t, otherItemDetails(item, 3, "tenge"), "Already reserved by someone else")
}
