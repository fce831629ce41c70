package mongo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageNames(p mongo.Pipeline) []string {
	names := make([]string, 0, len(p))
	for _, stage := range p {
		names = append(names, stage[0].Key)
	}
	return names
}

func TestRankedPipeline(t *testing.T) {
	followed := uuid.New()
	p := rankedPipeline([]uuid.UUID{followed}, 20, 10)

	if diff := cmp.Diff([]string{"$addFields", "$sort", "$skip", "$limit"}, stageNames(p)); diff != "" {
		t.Fatalf("stages (-want +got):\n%s", diff)
	}
	wantSort := bson.D{{Key: "priority", Value: -1}, {Key: "created_at", Value: -1}}
	if diff := cmp.Diff(wantSort, p[1][0].Value); diff != "" {
		t.Errorf("sort (-want +got):\n%s", diff)
	}
	if p[2][0].Value != int64(20) || p[3][0].Value != int64(10) {
		t.Errorf("skip/limit = %v/%v, want 20/10", p[2][0].Value, p[3][0].Value)
	}

	in := p[0][0].Value.(bson.D)[0].Value.(bson.D)[0].Value.(bson.A)[0].(bson.D)[0].Value.(bson.A)
	if diff := cmp.Diff([]string{followed.String()}, in[1]); diff != "" {
		t.Errorf("followed ids (-want +got):\n%s", diff)
	}
}

func TestChatPipeline(t *testing.T) {
	match := bson.D{{Key: "users", Value: "u"}}

	if diff := cmp.Diff([]string{"$match", "$sort", "$lookup"}, stageNames(chatPipeline(match, 0))); diff != "" {
		t.Errorf("list stages (-want +got):\n%s", diff)
	}
	one := chatPipeline(match, 1)
	if diff := cmp.Diff([]string{"$match", "$sort", "$limit", "$lookup"}, stageNames(one)); diff != "" {
		t.Errorf("single stages (-want +got):\n%s", diff)
	}
	lookup := one[3][0].Value.(bson.D)
	if lookup[0].Value != "messages" || lookup[3].Value != "last_message" {
		t.Errorf("unexpected lookup %v", lookup)
	}
}

func TestChatDocLastMessage(t *testing.T) {
	msgID, sender := uuid.New(), uuid.New()
	id := msgID.String()
	doc := chatDoc{
		ID:            uuid.NewString(),
		LastMessageID: &id,
		LastMessage: []messageDoc{{
			ID:       id,
			SenderID: sender.String(),
			Content:  "see you at the screening",
			Sender:   []userDoc{{ID: sender.String(), Username: "ann", Email: "ann@example.com"}},
		}},
	}

	c := doc.toDomain()
	if c.LastMessage == nil || c.LastMessage.ID != msgID || c.LastMessage.Sender.Username != "ann" {
		t.Fatalf("last message not populated: %+v", c.LastMessage)
	}

	doc.LastMessage = nil
	if doc.toDomain().LastMessage != nil {
		t.Error("missing lookup result should leave the last message nil")
	}
}
