package convert

import (
	"strconv"
	"strings"
)

// Footer template tokens, same markers Excel uses in its header/footer records.
const (
	FOOTER_TOKEN_PAGE  = "&P"
	FOOTER_TOKEN_TOTAL = "&N"
)

func DefaultFooterTemplate() string {
	return FOOTER_TOKEN_PAGE + " / " + FOOTER_TOKEN_TOTAL
}

// RenderFooter expands a footer template for one page. Substitution is
// purely textual: `&P` becomes the 1-based page number, `&N` the total page
// count. Anything else passes through unchanged. totalPages is only known
// after the whole document is laid out, so the assembler calls this in a
// finalization pass over the finished page list.
func RenderFooter(tpl string, pageNo, totalPages int) string {
	s := strings.ReplaceAll(tpl, FOOTER_TOKEN_PAGE, strconv.Itoa(pageNo))
	return strings.ReplaceAll(s, FOOTER_TOKEN_TOTAL, strconv.Itoa(totalPages))
}
