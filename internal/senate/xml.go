package senate

import (
	"strconv"
	"strings"
	"time"
)

// Raw LIS document shapes. These stay private to the package: the rest of
// the system only ever sees the unified model, never senate field names.

type menuXML struct {
	Summaries []menuSummaryXML `xml:"vote_summary"`
}

type menuSummaryXML struct {
	RollCall string `xml:"roll_call_vote_number"`
	Question string `xml:"vote_question_text"`
	Title    string `xml:"vote_title"`
	Issue    string `xml:"issue"`
	Result   string `xml:"vote_result_text"`
	Date     string `xml:"vote_date"`
}

type detailXML struct {
	Metadata detailMetadataXML `xml:"vote_metadata"`
	Members  []memberXML       `xml:"members>member"`
}

type detailMetadataXML struct {
	Question string   `xml:"vote_question_text"`
	Title    string   `xml:"vote_title"`
	Result   string   `xml:"vote_result_text"`
	Date     string   `xml:"vote_date"`
	Issue    string   `xml:"issue"`
	Count    countXML `xml:"count"`
}

type countXML struct {
	Yeas      string `xml:"yeas"`
	Nays      string `xml:"nays"`
	Present   string `xml:"present"`
	NotVoting string `xml:"not_voting"`
}

type memberXML struct {
	MemberFull  string `xml:"member_full"`
	LastName    string `xml:"last_name"`
	FirstName   string `xml:"first_name"`
	Party       string `xml:"party"`
	State       string `xml:"state"`
	VoteCast    string `xml:"vote_cast"`
	LISMemberID string `xml:"lis_member_id"`
}

// coerceDate normalizes the menu's "January 09, 2025" dates to ISO-8601.
// Unparseable values pass through unchanged rather than failing the run.
func coerceDate(s string) string {
	t, err := time.Parse("January 02, 2006", strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// bioguideFromMemberFull degrades member_full to its last whitespace
// token. The LIS feed carries no bioguide id; this stand-in is preserved
// as-is so the gap stays visible downstream instead of being papered over.
func bioguideFromMemberFull(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
