package notifier

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"CryptoScorer/internal/model"
)

// DateLayout is the timestamp layout used in order descriptions and reports.
const DateLayout = "2006-01-02 15:04:05"

// FormatDate renders epoch millis in DateLayout, UTC.
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(DateLayout)
}

// DescribeOrder builds the one-line order description,
// e.g. "Bought 0.0125 BTC-USD @ 64000.5 (0.5) [2024-01-01 12:00:00]".
func DescribeOrder(action model.OrderAction, volume float64, pair string, price, score float64, ts int64) string {
	verb := "Bought"
	if action == model.ActionSell {
		verb = "Sold"
	}
	return fmt.Sprintf("%s %s %s @ %s (%s) [%s]", verb, num(volume), pair, num(price), num(score), FormatDate(ts))
}

// num prints a float in plain decimal notation with no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatOrder formats a placed order into a Telegram message.
func FormatOrder(o *model.Order) string {
	icon := "🟢"
	if o.Action == model.ActionSell {
		icon = "🔴"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", icon, strings.ToUpper(string(o.Action)), o.Pair, o.Exchange))
	b.WriteString(o.Description + "\n")
	b.WriteString(fmt.Sprintf("Type: %s | Cost: %.2f\n", o.Type, o.Cost))
	if o.TxID != "" {
		b.WriteString(fmt.Sprintf("TxID: %s\n", o.TxID))
	}
	return b.String()
}

// FormatSignal formats a composite evaluation with its per-factor breakdown.
func FormatSignal(pair string, sig *model.Signal) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s score</b> | %s\n\n", pair, FormatDate(sig.Timestamp)))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", sig.Price))
	if sig.IncludesLive {
		b.WriteString("(includes the forming period)\n")
	}
	b.WriteString("\n📈 <b>Factors:</b>\n")
	for _, f := range sig.Factors {
		b.WriteString(fmt.Sprintf("  %s: %+.3f (×%.2f) = %+.3f\n", f.Name, f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Composite: %+.2f", sig.Score))
	if sig.Hold() {
		b.WriteString(" (hold)")
	}
	b.WriteString("\n")
	return b.String()
}

// FormatBalance formats a balance snapshot for display.
func FormatBalance(bal *model.Balance, base, quote string) string {
	var b strings.Builder
	b.WriteString("📦 <b>Balance</b>\n\n")
	b.WriteString(fmt.Sprintf("%s: %s\n", base, num(bal.BaseBalance)))
	b.WriteString(fmt.Sprintf("%s: %.2f\n", quote, bal.QuoteBalance))
	b.WriteString(fmt.Sprintf("Total: %.2f %s\n", bal.TotalValue, bal.ValueCurrency))
	if !bal.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", bal.UpdatedAt.UTC().Format(DateLayout)))
	}
	return b.String()
}

// HelpText lists the supported chat commands.
const HelpText = `<b>Commands</b>
/score - evaluate the composite score now
/balance - show the latest balance snapshot
/help - show this message`
