package feed

// Item is one <item> element extracted from a feed document.
//
// PubDate and Description are extracted but not persisted: the store keeps
// only FeedID, RSSID, Title and Raw. Raw carries the full element, so the
// dropped fields can be recovered by reprocessing.
type Item struct {
	FeedID      string
	RSSID       string  // text of <guid>
	Title       *string // nil when <title> has no text
	PubDate     string
	Description *string // nil when <description> is absent
	Raw         string  // serialized <item> subtree
}
