package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/vmihailenco/msgpack/v5"
)

// Raw shape of a stored meeting record; kept local so the tool stays
// decoupled from the repository internals.
type storedMeeting struct {
	ID          string              `msgpack:"id"`
	Title       string              `msgpack:"title"`
	CreatorID   string              `msgpack:"creator_id"`
	ScheduledAt int64               `msgpack:"scheduled_at"`
	Expected    []storedParticipant `msgpack:"expected"`
	Waiting     []storedParticipant `msgpack:"waiting"`
	Admitted    []storedParticipant `msgpack:"admitted"`
}

type storedParticipant struct {
	Email string `msgpack:"email"`
}

func main() {
	dbPath := flag.String("db", "/tmp/meet-lab", "Path to badger DB")
	prefix := flag.String("prefix", "meeting:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Title", "Creator", "Expected", "Waiting", "Admitted", "Emails"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var meeting storedMeeting
				if err := msgpack.Unmarshal(v, &meeting); err != nil {
					// Keep scanning instead of failing the whole dump.
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				emails := ""
				for _, p := range meeting.Admitted {
					emails += p.Email + " "
				}

				// Only the first 8 characters of the creator id, for readability
				creator := meeting.CreatorID
				if len(creator) > 8 {
					creator = creator[:8]
				}

				table.Append([]string{
					string(item.Key()),
					meeting.Title,
					creator,
					fmt.Sprintf("%d", len(meeting.Expected)),
					fmt.Sprintf("%d", len(meeting.Waiting)),
					fmt.Sprintf("%d", len(meeting.Admitted)),
					emails,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}
