package store

import "fmt"

// Key layout. A single keyspace holds three record families; prefixes keep
// iteration scoped and sorted:
//
//	conv:<id>                     conversation JSON
//	convrcpt:<recipientID>        conversation id (draft lookup by counterpart)
//	msg:<convID>:<nano>-<seq>     message JSON, insertion ordered
//	msgid:<messageID>             primary message key (for deletes)
//	media:<id>                    media metadata JSON
//	mediablob:<id>                raw media bytes
//	mediats:<millis>:<id>         media id (expiry scan by capture time)

func convKey(id string) string {
	return "conv:" + id
}

func convRecipientKey(recipientID string) string {
	return "convrcpt:" + recipientID
}

func msgPrefix(convID string) string {
	return "msg:" + convID + ":"
}

func msgKey(convID string, nanos int64, seq uint64) string {
	return fmt.Sprintf("msg:%s:%020d-%06d", convID, nanos, seq)
}

func msgIDKey(messageID string) string {
	return "msgid:" + messageID
}

func mediaKey(id string) string {
	return "media:" + id
}

func mediaBlobKey(id string) string {
	return "mediablob:" + id
}

func mediaTSPrefix() string {
	return "mediats:"
}

func mediaTSKey(millis int64, id string) string {
	return fmt.Sprintf("mediats:%020d:%s", millis, id)
}
