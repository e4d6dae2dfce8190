package query

// Result is the outcome of a collaborator call: either the records it
// produced or the reason it failed. Writes and inserts return the affected
// record as the single element of Records.
type Result struct {
	Records []Record
	Err     error
}

// Ok builds a successful result.
func Ok(records ...Record) Result {
	if records == nil {
		records = []Record{}
	}
	return Result{Records: records}
}

// Fail builds a failed result.
func Fail(err error) Result {
	return Result{Err: err}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// First returns the first record, or nil when there is none.
func (r Result) First() Record {
	if len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}
