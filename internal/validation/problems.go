package validation

import "fmt"

// CreateProblems lists every failed check as "<entity> : <message>", in
// entity insertion order and then check insertion order.
func CreateProblems(report *Report, messages Messages) []string {
	problems := []string{}
	if report == nil {
		return problems
	}
	for _, e := range report.Entities {
		for _, c := range e.Checks {
			if c.Result != Fail {
				continue
			}
			problems = append(problems, fmt.Sprintf("%s : %s", e.Name, messages.Message(c.Check)))
		}
	}
	return problems
}
