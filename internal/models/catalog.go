package models

import (
	"sort"
	"strings"
)

// ApprovalPrefix marks keywords that were added through teacher approval.
const ApprovalPrefix = "Teacher Approved - "

// Catalog maps grade -> subject -> ordered keyword list.
type Catalog map[string]map[string][]string

// Bucket returns the keyword list for a grade/subject pair, nil when absent.
func (c Catalog) Bucket(grade, subject string) []string {
	subjects, ok := c[grade]
	if !ok {
		return nil
	}
	return subjects[subject]
}

// SetBucket replaces a bucket, creating the grade entry when needed.
func (c Catalog) SetBucket(grade, subject string, keywords []string) {
	subjects, ok := c[grade]
	if !ok {
		subjects = make(map[string][]string)
		c[grade] = subjects
	}
	subjects[subject] = keywords
}

// Grades returns the grade keys in sorted order.
func (c Catalog) Grades() []string {
	grades := make([]string, 0, len(c))
	for grade := range c {
		grades = append(grades, grade)
	}
	sort.Strings(grades)
	return grades
}

// Subjects returns the subject keys of a grade in sorted order.
func (c Catalog) Subjects(grade string) []string {
	subjects := make([]string, 0, len(c[grade]))
	for subject := range c[grade] {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// StripApprovalPrefix removes the approval marker, matching it case-insensitively.
// The marker's trailing space is optional so a trimmed bare marker still matches.
func StripApprovalPrefix(keyword string) (string, bool) {
	marker := strings.TrimSpace(ApprovalPrefix)
	if len(keyword) < len(marker) || !strings.EqualFold(keyword[:len(marker)], marker) {
		return keyword, false
	}
	rest := keyword[len(marker):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return keyword, false
	}
	return strings.TrimSpace(rest), true
}

// ApprovalRequest is the body of the approve endpoint.
type ApprovalRequest struct {
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
	Prompt  string `json:"prompt"`
}

// ApprovalResult describes the bucket after a successful approval.
type ApprovalResult struct {
	Grade    string   `json:"grade"`
	Subject  string   `json:"subject"`
	Keyword  string   `json:"keyword"`
	Keywords []string `json:"keywords"`
}

// KeywordsResponse is returned by the keyword lookup endpoint.
type KeywordsResponse struct {
	Keywords []string `json:"keywords"`
}
