// Package kb holds the authoritative knowledge-base records and the pure
// correction logic that produces the next generation's record set.
package kb

import (
	"strings"

	"github.com/faqline/faqline/internal/faqerr"
)

// DefaultTargetGroup is assigned to records appended by a correction that
// does not name an audience.
const DefaultTargetGroup = "all customers"

// Record is one logical question/answer pair before chunking.
type Record struct {
	Question    string
	Answer      string
	Category    string
	Subcategory string
	TargetGroup string
}

// Taxonomy carries optional classification fields on a correction.
// Empty fields leave the matched record's values untouched.
type Taxonomy struct {
	Category    string
	Subcategory string
	TargetGroup string
}

// KnowledgeBase is an ordered sequence of records. Insertion order is
// preserved: corrections update matched records in place and append new ones
// at the end. The coordinator owns all mutation sequencing.
type KnowledgeBase []Record

// Load builds a knowledge base from raw corpus rows. Rows with an empty
// question or answer are dropped silently, matching the corpus loader's
// treatment of malformed rows.
func Load(rows []Record) KnowledgeBase {
	records := make(KnowledgeBase, 0, len(rows))
	for _, r := range rows {
		if r.Question == "" || r.Answer == "" {
			continue
		}
		records = append(records, r)
	}
	return records
}

// ApplyCorrection returns the record set for the next generation. It never
// mutates the receiver; callers own sequencing and publication.
//
// Matching is exact string equality on Question. On a match the answer and any
// non-empty taxonomy fields are replaced on that record only. With no match a
// new record is appended, defaulting TargetGroup to "all customers".
func (k KnowledgeBase) ApplyCorrection(question, newAnswer string, tax Taxonomy) (KnowledgeBase, error) {
	if strings.TrimSpace(question) == "" {
		return nil, faqerr.Validationf("question must not be empty")
	}
	if strings.TrimSpace(newAnswer) == "" {
		return nil, faqerr.Validationf("answer must not be empty")
	}

	next := make(KnowledgeBase, len(k))
	copy(next, k)

	matched := false
	for i := range next {
		if next[i].Question != question {
			continue
		}
		matched = true
		next[i].Answer = newAnswer
		if tax.Category != "" {
			next[i].Category = tax.Category
		}
		if tax.Subcategory != "" {
			next[i].Subcategory = tax.Subcategory
		}
		if tax.TargetGroup != "" {
			next[i].TargetGroup = tax.TargetGroup
		}
	}
	if matched {
		return next, nil
	}

	target := tax.TargetGroup
	if target == "" {
		target = DefaultTargetGroup
	}
	next = append(next, Record{
		Question:    question,
		Answer:      newAnswer,
		Category:    tax.Category,
		Subcategory: tax.Subcategory,
		TargetGroup: target,
	})
	return next, nil
}
