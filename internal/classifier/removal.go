package classifier

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
)

// Rule names reported in the removal log
const (
	RuleApprovalRejected    = "approval_rejected"
	RuleTerminated          = "terminated"
	RuleRequirementCategory = "requirement_category"
)

// RemovalClassifier marks records that must not take part in the
// scorecard statistics
type RemovalClassifier struct {
	logger *slog.Logger
}

// NewRemovalClassifier creates a new removal classifier
func NewRemovalClassifier(logger *slog.Logger) *RemovalClassifier {
	return &RemovalClassifier{logger: logger}
}

// MatchedRules returns the names of the removal rules the record triggers
func MatchedRules(r domain.Record) []string {
	var rules []string
	if r.ApprovalResult == domain.ApprovalResultRejected {
		rules = append(rules, RuleApprovalRejected)
	}
	if r.ApprovalStatus == domain.ApprovalStatusTerminated {
		rules = append(rules, RuleTerminated)
	}
	if r.NonDevCategory != nil && strings.Contains(*r.NonDevCategory, domain.RequirementCategory) {
		rules = append(rules, RuleRequirementCategory)
	}
	return rules
}

// Classify returns a copy of r with Excluded set. A record already marked
// YES stays YES.
func Classify(r domain.Record) domain.Record {
	if r.Excluded == "" {
		r.Excluded = domain.FlagNo
	}
	if len(MatchedRules(r)) > 0 {
		r.Excluded = domain.FlagYes
	}
	return r
}

// ClassifyAll classifies every record and logs how many rows each rule hit
func (c *RemovalClassifier) ClassifyAll(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	ruleHits := map[string]int{}
	initiallyExcluded := 0

	for i, r := range records {
		if r.IsExcluded() {
			initiallyExcluded++
		}
		for _, rule := range MatchedRules(r) {
			ruleHits[rule]++
		}
		out[i] = Classify(r)
	}

	report := Report(out)
	c.logger.Info("removal rules applied",
		RuleApprovalRejected, ruleHits[RuleApprovalRejected],
		RuleTerminated, ruleHits[RuleTerminated],
		RuleRequirementCategory, ruleHits[RuleRequirementCategory],
		"newly_excluded", report.Excluded-initiallyExcluded,
		"excluded", report.Excluded,
		"retained", report.Retained,
		"retained_pct", report.RetainedPct,
	)

	return out
}

// Report counts excluded and retained records
func Report(records []domain.Record) domain.RemovalReport {
	report := domain.RemovalReport{Total: len(records), RetainedPct: "N/A"}
	for _, r := range records {
		if r.IsExcluded() {
			report.Excluded++
		} else {
			report.Retained++
		}
	}
	if report.Total > 0 {
		report.RetainedPct = fmt.Sprintf("%.2f%%", float64(report.Retained)/float64(report.Total)*100)
	}
	return report
}

// Retained returns the records not marked for removal
func Retained(records []domain.Record) []domain.Record {
	var out []domain.Record
	for _, r := range records {
		if !r.IsExcluded() {
			out = append(out, r)
		}
	}
	return out
}
