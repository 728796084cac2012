package main

import (
	"encoding/json"
	"fmt"
	"os"

	"kanalex/candidates"
	"kanalex/converter"
	"kanalex/dict"
	"kanalex/history"
	"kanalex/logger"
	"kanalex/model"
	"kanalex/session"
)

// sampleEntries is a tiny built-in dictionary used when no compiled
// dictionary is present, so the demo runs out of the box.
func sampleEntries() []model.SearchResult {
	return []model.SearchResult{
		{Reading: "きょう", Entries: []model.DictEntry{
			{Surface: "今日", Cost: 3000, LeftID: 100, RightID: 100},
			{Surface: "京", Cost: 5000, LeftID: 101, RightID: 101},
		}},
		{Reading: "は", Entries: []model.DictEntry{
			{Surface: "は", Cost: 2000, LeftID: 200, RightID: 200},
		}},
		{Reading: "いい", Entries: []model.DictEntry{
			{Surface: "良い", Cost: 3500, LeftID: 300, RightID: 300},
		}},
		{Reading: "てんき", Entries: []model.DictEntry{
			{Surface: "天気", Cost: 4000, LeftID: 400, RightID: 400},
		}},
		{Reading: "です", Entries: []model.DictEntry{
			{Surface: "です", Cost: 2500, LeftID: 800, RightID: 800},
		}},
		{Reading: "ね", Entries: []model.DictEntry{
			{Surface: "ね", Cost: 2000, LeftID: 900, RightID: 900},
		}},
	}
}

func loadDictionary() *dict.TrieDictionary {
	const compiled = "data/kanalex.dict"
	if d, err := dict.Open(compiled); err == nil {
		return d
	}
	return dict.FromEntries(sampleEntries())
}

func loadConnection() *dict.ConnectionMatrix {
	const compiled = "data/kanalex.conn"
	if m, err := dict.OpenConnection(compiled); err == nil {
		return m
	}
	return nil
}

func main() {
	logger.Setup(os.Getenv("KANALEX_LOG"))

	if err := logger.InitLogs("logs"); err != nil {
		fmt.Println("failed to init logs:", err)
		return
	}

	d := loadDictionary()
	conn := loadConnection()
	readings, entries := d.Stats()
	fmt.Printf("dictionary: %d readings, %d entries\n", readings, entries)

	h, wal, err := history.OpenWithWAL("data/history.lxud")
	if err != nil {
		fmt.Println("failed to open history:", err)
		return
	}

	// Plain conversion.
	const text = "きょうはいいてんき"
	segments := converter.Convert(d, conn, text)
	out, _ := json.MarshalIndent(segments, "", "  ")
	fmt.Println(string(out))
	if err := logger.LogJSON("logs", "conversion", segments); err != nil {
		fmt.Println("failed to write conversion log:", err)
	}

	// Candidate pipeline.
	resp := candidates.Generate(d, conn, h, "きょう", 9)
	if err := logger.LogJSON("logs", "candidates", resp.Surfaces); err != nil {
		fmt.Println("failed to write candidate log:", err)
	}

	// Session scenario: type "kyouha", cycle once, commit.
	sess := session.New(d, conn, h)
	for _, ch := range "kyouha" {
		sess.HandleKey(0, string(ch), 0)
	}
	sess.HandleKey(session.KeySpace, " ", 0)
	final := sess.HandleKey(session.KeyEnter, "\n", 0)
	if final.HasCommit {
		fmt.Println("committed:", final.Commit)
	}

	for _, record := range sess.TakeHistoryRecords() {
		h.Record(record)
		if err := wal.Append(record, history.NowEpoch()); err != nil {
			fmt.Println("failed to append history wal:", err)
		}
	}
	if err := h.Save("data/history.lxud"); err != nil {
		fmt.Println("failed to save history:", err)
		return
	}
	if err := wal.Truncate(); err != nil {
		fmt.Println("failed to truncate history wal:", err)
	}

	if err := logger.LogJSON("logs", "session", map[string]interface{}{
		"committed": final.Commit,
		"consumed":  final.Consumed,
	}); err != nil {
		fmt.Println("failed to write session log:", err)
	}
}
