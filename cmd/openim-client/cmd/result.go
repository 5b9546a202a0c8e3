package cmd

import (
	"fmt"
	"io"

	"gitlab.com/timkado/api/openim-client/internal/domain"
)

// printResult writes res and turns a failed envelope into an error so the
// process exits non-zero.
func printResult(w io.Writer, res domain.Result) error {
	if err := writeJSON(w, res); err != nil {
		return err
	}
	if res.OK() {
		return nil
	}
	code, _ := res.ErrCode()
	return fmt.Errorf("request failed: errCode %d: %s", code, res.ErrMsg())
}
