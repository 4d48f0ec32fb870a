package domain

// TestCase is an (input, expected output) pair. Order inside a Problem is significant.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Problem is read-only to the judging core and always loaded with its test cases in
// author-defined order.
type Problem struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Statement string     `json:"statement"`
	TestCases []TestCase `json:"-"`
}

// ProblemView is the client-facing projection of a problem, without its test cases.
type ProblemView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Statement string `json:"statement"`
}

// View projects the problem for clients.
func (p *Problem) View() *ProblemView {
	return &ProblemView{ID: p.ID, Title: p.Title, Statement: p.Statement}
}

// Clone returns a copy whose test case slice is not shared with p.
func (p *Problem) Clone() *Problem {
	c := *p
	c.TestCases = append([]TestCase(nil), p.TestCases...)
	return &c
}
