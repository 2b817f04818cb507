package house

import (
	"strconv"
	"strings"
)

// Raw Clerk EVS document shapes, private to the package. The EVS schema
// shares nothing with the LIS one: dashed tag names, totals on the
// metadata node, legislators as attributes.

type rollcallXML struct {
	Metadata voteMetadataXML   `xml:"vote-metadata"`
	Recorded []recordedVoteXML `xml:"vote-data>recorded-vote"`
}

type voteMetadataXML struct {
	Question  string `xml:"vote-question"`
	Result    string `xml:"vote-result"`
	Date      string `xml:"vote-date"`
	LegisNum  string `xml:"legis-num"`
	Desc      string `xml:"vote-desc"`
	Yea       string `xml:"yea-total"`
	Nay       string `xml:"nay-total"`
	Present   string `xml:"present-total"`
	NotVoting string `xml:"not-voting-total"`
}

type recordedVoteXML struct {
	Legislator legislatorXML `xml:"legislator"`
	Vote       string        `xml:"vote"`
}

type legislatorXML struct {
	NameID        string `xml:"name-id,attr"`
	UnaccentedRaw string `xml:"unaccented-name,attr"`
	First         string `xml:"first,attr"`
	Party         string `xml:"party,attr"`
	State         string `xml:"state,attr"`
	District      string `xml:"district,attr"`
}

// lastName takes the surname half of the "Last, First" unaccented name.
func (l legislatorXML) lastName() string {
	last, _, _ := strings.Cut(l.UnaccentedRaw, ",")
	return strings.TrimSpace(last)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
