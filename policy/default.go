package policy

func load(key string) Expr {
	return Expr{Operator: "Load", Args: []Expr{{Const: key}}}
}

func roleIn(roles ...string) Expr {
	list := make([]any, len(roles))
	for i, r := range roles {
		list[i] = r
	}
	return Expr{Operator: "In", Args: []Expr{load("requester.role"), {Const: list}}}
}

// selfReview matches when the requester is the employee the subject belongs to.
var selfReview = Expr{
	Operator: "And",
	Args: []Expr{
		{Operator: "Not", Args: []Expr{{Operator: "Eq", Args: []Expr{load("requester.employeeId"), {Const: ""}}}}},
		{Operator: "Eq", Args: []Expr{load("requester.employeeId"), load("subject.employeeId")}},
	},
}

// DefaultPolicy lets admins, managers and reviewers approve timesheets and
// leave, never their own, and keeps invoicing to admins and managers.
func DefaultPolicy() PolicyDocument {
	reviewers := roleIn("admin", "manager", "reviewer")
	return PolicyDocument{
		Name:        "timepulse-default",
		Description: "built-in approval rules",
		Versions: map[string]Policy{
			CurrentVersion: {
				Statements: map[string][]Stmt{
					"timesheet.approve": {
						{Emit: "deny", Condition: selfReview},
						{Emit: "allow", Condition: reviewers},
					},
					"leave.approve": {
						{Emit: "deny", Condition: selfReview},
						{Emit: "allow", Condition: reviewers},
					},
					"invoice.manage": {
						{Emit: "allow", Condition: roleIn("admin", "manager")},
					},
				},
				Defaults: map[string]bool{
					"timesheet.approve": false,
					"leave.approve":     false,
					"invoice.manage":    false,
				},
			},
		},
	}
}
