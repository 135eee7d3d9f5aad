package hana

import (
	"fmt"
	"strconv"
	"time"

	"github.com/redbco/hana-backend/pkg/driver"
)

// DebugCursor is a Cursor with statement recording forced on regardless of
// the connection configuration: every statement is timed, appended to the
// connection's query log, and emitted as one structured diagnostic line.
// Recording happens whether the statement succeeds or fails; failures are
// recorded with the error attached and then returned unchanged.
//
// Connections configured with Debug record through plain cursors too; the
// DebugCursor type exists for callers that want recording on a connection
// that is otherwise quiet.
type DebugCursor struct {
	*Cursor
}

// record appends one executed statement to the query log and emits the
// diagnostic line. sqlText is the rendered form for single statements and
// the "N times: <sql>" form for batches; params have already been sanitized
// for logging.
func (c *Cursor) record(sqlText string, params []interface{}, elapsed time.Duration, err error) {
	c.conn.queryLog.Append(QueryLogEntry{
		SQL:      sqlText,
		Params:   params,
		Duration: elapsed,
		Err:      err,
		At:       time.Now(),
	})

	if c.conn.logger == nil {
		return
	}
	fields := map[string]string{
		"duration": strconv.FormatFloat(elapsed.Seconds(), 'f', 6, 64),
		"sql":      sqlText,
		"params":   fmt.Sprintf("%v", params),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	c.conn.logger.WithFields(fields).Debug("query executed")
}

// sanitizeForLog lowers parameter values that do not render usefully, so the
// log never holds live driver handles. Blobs are reduced to their raw bytes.
func sanitizeForLog(params []interface{}) []interface{} {
	if params == nil {
		return nil
	}
	out := make([]interface{}, len(params))
	for i, p := range params {
		if b, ok := p.(driver.Blob); ok {
			out[i] = b.Data
			continue
		}
		out[i] = p
	}
	return out
}

func flatten(sets [][]interface{}) []interface{} {
	var out []interface{}
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
