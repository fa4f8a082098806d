package staker

import (
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
)

// Report summarises a finished batch
type Report struct {
	BatchID   uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Total     int // accounts handed to the batch
	Outcomes  []Outcome
}

// Succeeded returns the outcomes whose transaction was submitted
func (r Report) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that stopped with an error
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Skipped is the number of accounts never attempted, e.g. after cancellation
func (r Report) Skipped() int {
	return r.Total - len(r.Outcomes)
}

// WriteTable renders one row per outcome followed by totals
func (r Report) WriteTable(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Account", "Amount", "Status", "Signature / Error"})
	table.SetAutoWrapText(false)

	for _, o := range r.Outcomes {
		detail := o.Signature.String()
		status := o.Stage.String()
		if !o.Succeeded() {
			status = "failed at " + o.FailedAt.String()
			if o.Err != nil {
				detail = o.Err.Error()
			}
		}
		table.Append([]string{
			strconv.Itoa(o.Index + 1),
			o.Owner.String(),
			strconv.FormatUint(o.Amount, 10),
			status,
			detail,
		})
	}

	table.SetFooter([]string{
		"",
		"batch " + r.BatchID.String(),
		"ok " + strconv.Itoa(len(r.Succeeded())),
		"failed " + strconv.Itoa(len(r.Failed())),
		"skipped " + strconv.Itoa(r.Skipped()),
	})
	table.Render()
}
