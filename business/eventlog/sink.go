package eventlog

import (
	"strconv"
	"time"
	_ "time/tzdata"
)

// TimestampLayout is yy-mm-dd HH:MM:SS in Korea Standard Time.
const TimestampLayout = "06-01-02 15:04:05"

var kst = loadKST()

func loadKST() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// FormatTimestamp renders t the way every sink stores it.
func FormatTimestamp(t time.Time) string {
	return t.In(kst).Format(TimestampLayout)
}

type Sink string

const (
	SinkView    Sink = "view"
	SinkClick   Sink = "click"
	SinkShare   Sink = "share"
	SinkMusinsa Sink = "musinsa"
)

// Record is one immutable log row. UserID is 0 for guests.
type Record struct {
	SessionID string
	UserID    uint64
	OutfitID  uint64
	Timestamp time.Time
	// view_type or click_type; unused by share and musinsa rows
	Tag string
}

type sinkLayout struct {
	file   string
	header string
	format func(r Record) string
}

// share and musinsa keep their historical header spacing and the space
// before the timestamp so existing readers keep working.
var sinkLayouts = map[Sink]sinkLayout{
	SinkView: {
		file:   "view_image_log.txt",
		header: "session_id,user_id,outfit_id,timestamp,view_type",
		format: taggedRow,
	},
	SinkClick: {
		file:   "click_image_log.txt",
		header: "session_id,user_id,outfit_id,timestamp,click_type",
		format: taggedRow,
	},
	SinkShare: {
		file:   "click_share_log.txt",
		header: "session_id, user_id, outfit_id, timestamp",
		format: shareRow,
	},
	SinkMusinsa: {
		file:   "click_musinsa_log.txt",
		header: "session_id, user_id, outfit_id, timestamp",
		format: shareRow,
	},
}

func taggedRow(r Record) string {
	return r.SessionID + "," +
		strconv.FormatUint(r.UserID, 10) + "," +
		strconv.FormatUint(r.OutfitID, 10) + "," +
		FormatTimestamp(r.Timestamp) + "," +
		r.Tag
}

func shareRow(r Record) string {
	return r.SessionID + "," +
		strconv.FormatUint(r.UserID, 10) + "," +
		strconv.FormatUint(r.OutfitID, 10) + ", " +
		FormatTimestamp(r.Timestamp)
}

// NormalizeClickType keeps journey, collection and similar; anything else
// is logged as unknown.
func NormalizeClickType(raw string) string {
	switch raw {
	case "journey", "collection", "similar":
		return raw
	default:
		return "unknown"
	}
}

// NormalizeShareType keeps share and musinsa; anything else is unknown.
func NormalizeShareType(raw string) string {
	switch raw {
	case "share", "musinsa":
		return raw
	default:
		return "unknown"
	}
}

// SinkForShare routes "share" to the share sink and everything else,
// unknown included, to the musinsa sink.
func SinkForShare(shareType string) Sink {
	if NormalizeShareType(shareType) == "share" {
		return SinkShare
	}
	return SinkMusinsa
}
