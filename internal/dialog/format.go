package dialog

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Kerhoff/WishlistBot/internal/models"
)

const notSpecified = "Not specified"

var printer = message.NewPrinter(language.English)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

// escLinkURL escapes the target of an inline link, where only ')' and '\'
// are special.
func escLinkURL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(s)
}

// formatPrice renders a price with grouping, or "Not specified" for zero.
func formatPrice(price float64, currency string) string {
	if price <= 0 {
		return notSpecified
	}
	amount := printer.Sprint(number.Decimal(price, number.MaxFractionDigits(2)))
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

func formatLink(url string) string {
	if url == "" {
		return esc(notSpecified)
	}
	return fmt.Sprintf("[Link](%s)", escLinkURL(url))
}

// ownItemDetails renders an item for its owner. Reservation state is
// left out so owners are not told what they will receive.
func ownItemDetails(item *models.WishlistItem, currency string) string {
	var sb strings.Builder
	sb.WriteString(esc("Wishlist Item Details:"))
	sb.WriteString("\n\n")
	sb.WriteString("*Name:* " + esc(item.Name) + "\n")
	sb.WriteString("*Price:* " + esc(formatPrice(item.Price, currency)) + "\n")
	sb.WriteString("*URL:* " + formatLink(item.URL))
	return sb.String()
}

// otherItemDetails renders an item for a visitor, including whether it can
// still be reserved.
func otherItemDetails(item *models.WishlistItem, viewerID int64, currency string) string {
	var sb strings.Builder
	sb.WriteString("*" + esc(item.Name) + "*\n")
	sb.WriteString(esc("Price: "+formatPrice(item.Price, currency)) + "\n")
	sb.WriteString(esc("URL: ") + formatLink(item.URL))

	switch {
	case item.IsReservedBy(viewerID):
		sb.WriteString("\n\n_" + esc("You have reserved this item.") + "_")
	case item.IsReserved():
		sb.WriteString("\n\n_" + esc("Already reserved by someone else.") + "_")
	}
	return sb.String()
}
