package bot

import (
	"strconv"
	"strings"
)

// parseOrder interprets a plain chat message as an order line.
//
// The first token is the item name (lowercased), the optional second
// token is the quantity. A missing quantity means 1. Messages with no
// tokens, a non-numeric quantity, or extra trailing tokens are not
// order lines and are ignored.
func parseOrder(text string) (item string, quantity int, ok bool) {
	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(text)))

	switch len(tokens) {
	case 1:
		return tokens[0], 1, true
	case 2:
		n, err := strconv.Atoi(tokens[1])
		if err != nil {
			return "", 0, false
		}
		return tokens[0], n, true
	default:
		return "", 0, false
	}
}
