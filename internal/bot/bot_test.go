package bot

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/cexll/rivalsbot/internal/counters"
	"github.com/cexll/rivalsbot/internal/session"
	"github.com/cexll/rivalsbot/internal/store"
)

type fakeResponder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []string
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edit.Content != nil {
		f.edits = append(f.edits, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) last(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		t.Fatal("no interaction response sent")
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeResponder) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

type fixture struct {
	h     *Handler
	resp  *fakeResponder
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	src, err := counters.NewSource("", nil)
	if err != nil {
		t.Fatalf("counters.NewSource() error = %v", err)
	}

	resp := &fakeResponder{}
	h := New(Deps{
		Responder:      resp,
		Roster:         st,
		Counters:       src,
		Sessions:       session.NewRegistry(),
		Authorized:     []string{"admin"},
		SessionTimeout: time.Minute,
		ModalTimeout:   time.Minute,
	})
	return &fixture{h: h, resp: resp, store: st}
}

func slash(user, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: user, Username: user + "-name"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}
}

func strOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func click(user, customID string, values ...string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: user}},
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID, Values: values},
	}
}

func submit(user, customID, field, value string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionModalSubmit,
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: user}},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: customID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: field, Value: value},
				}},
			},
		},
	}
}

// componentIDs flattens the custom IDs of buttons and menus in a response.
func componentIDs(resp *discordgo.InteractionResponse) []string {
	var ids []string
	for _, c := range resp.Data.Components {
		row, ok := c.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			switch v := inner.(type) {
			case discordgo.Button:
				ids = append(ids, v.CustomID)
			case discordgo.SelectMenu:
				ids = append(ids, v.CustomID)
			}
		}
	}
	return ids
}

func findID(t *testing.T, ids []string, suffix string) string {
	t.Helper()
	for _, id := range ids {
		if strings.HasSuffix(id, suffix) {
			return id
		}
	}
	t.Fatalf("no component ending in %q among %v", suffix, ids)
	return ""
}

func isEphemeral(resp *discordgo.InteractionResponse) bool {
	return resp.Data != nil && resp.Data.Flags&discordgo.MessageFlagsEphemeral != 0
}

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want customID
	}{
		{"add:1:class:tank", true, customID{kind: session.KindAdd, token: "1", action: "class", arg: "tank"}},
		{"learning:a:submit", true, customID{kind: session.KindLearning, token: "a", action: "submit"}},
		{"remove::pick:0", false, customID{}},
		{"tank", false, customID{}},
		{"other:1:x", false, customID{}},
	}
	for _, tt := range tests {
		got, ok := parseCustomID(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("parseCustomID(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAddFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "add"))
	first := f.resp.last(t)
	if !isEphemeral(first) || len(componentIDs(first)) != 4 {
		t.Fatalf("add reply = %+v, want 4 ephemeral class buttons", first.Data)
	}

	f.h.Handle(ctx, click("u1", findID(t, componentIDs(first), ":class:dps")))
	modal := f.resp.last(t)
	if modal.Type != discordgo.InteractionResponseModal || modal.Data.Title != "Enter Characters for DPS" {
		t.Fatalf("class click response = %+v", modal)
	}

	f.h.Handle(ctx, submit("u1", modal.Data.CustomID, "names", "psylocke, moon knight, Psylocke"))
	done := f.resp.last(t)
	if !strings.Contains(done.Data.Content, "Added: **Psylocke, Moon Knight**") {
		t.Fatalf("modal response = %q", done.Data.Content)
	}
	if f.resp.editCount() != 1 {
		t.Fatalf("origin edits = %d, want 1", f.resp.editCount())
	}

	roster, err := f.store.Roster(ctx, "u1", "g1")
	if err != nil || len(roster) != 1 || roster[0].Class != store.ClassDPS {
		t.Fatalf("roster = %+v, %v", roster, err)
	}

	// The session is over; resubmitting the modal is rejected.
	f.h.Handle(ctx, submit("u1", modal.Data.CustomID, "names", "hela"))
	if got := f.resp.last(t).Data.Content; got != msgExpired {
		t.Fatalf("stale submit response = %q", got)
	}
}

func TestAddFlow_AllDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddCharacters(ctx, "u1", "g1", store.ClassTank, []string{"Groot"}); err != nil {
		t.Fatal(err)
	}

	f.h.Handle(ctx, slash("u1", "add"))
	f.h.Handle(ctx, click("u1", findID(t, componentIDs(f.resp.last(t)), ":class:tank")))
	f.h.Handle(ctx, submit("u1", f.resp.last(t).Data.CustomID, "names", "GROOT"))

	if got := f.resp.last(t).Data.Content; !strings.HasPrefix(got, "No new characters were added") {
		t.Fatalf("duplicate add response = %q", got)
	}
}

func TestComponentFromOtherUserRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "add"))
	id := findID(t, componentIDs(f.resp.last(t)), ":class:tank")

	f.h.Handle(ctx, click("u2", id))
	if got := f.resp.last(t).Data.Content; got != msgExpired {
		t.Fatalf("foreign click response = %q", got)
	}
}

func TestSessionExpiryEditsOrigin(t *testing.T) {
	f := newFixture(t)
	f.h.sessionTimeout = 10 * time.Millisecond

	f.h.Handle(context.Background(), slash("u1", "remove"))
	// No roster: replied without a session.
	if f.resp.last(t).Data.Content != "No characters found for <@u1>." {
		t.Fatalf("empty remove response = %q", f.resp.last(t).Data.Content)
	}

	f.h.Handle(context.Background(), slash("u1", "add"))
	deadline := time.Now().Add(time.Second)
	for f.resp.editCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if f.resp.editCount() != 1 {
		t.Fatal("expiry did not edit the original reply")
	}
	f.resp.mu.Lock()
	got := f.resp.edits[0]
	f.resp.mu.Unlock()
	if got != msgClassTimeout {
		t.Fatalf("expiry edit = %q", got)
	}
}

func TestRemoveFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddCharacters(ctx, "u1", "g1", store.ClassTank, []string{"Groot", "Thor", "Venom", "Hulk", "Magneto", "Penny Parker"}); err != nil {
		t.Fatal(err)
	}

	f.h.Handle(ctx, slash("u1", "remove"))
	resp := f.resp.last(t)
	if len(resp.Data.Components) != 2 {
		t.Fatalf("rows = %d, want 2 (five buttons per row)", len(resp.Data.Components))
	}
	row := resp.Data.Components[0].(discordgo.ActionsRow)
	if btn := row.Components[1].(discordgo.Button); btn.Label != "Thor (Tank)" {
		t.Fatalf("second button label = %q", btn.Label)
	}

	f.h.Handle(ctx, click("u1", findID(t, componentIDs(resp), ":pick:1")))
	done := f.resp.last(t)
	if done.Type != discordgo.InteractionResponseUpdateMessage || !strings.Contains(done.Data.Content, "**Thor**") {
		t.Fatalf("remove response = %+v", done.Data)
	}

	roster, _ := f.store.Roster(ctx, "u1", "g1")
	for _, name := range roster[0].Characters {
		if name == "Thor" {
			t.Fatal("Thor still in roster")
		}
	}
}

func TestShow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddCharacters(ctx, "u2", "g1", store.ClassHealer, []string{"Mantis"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.AddCharacters(ctx, "u2", "g1", store.ClassTank, []string{"Groot", "Thor"}); err != nil {
		t.Fatal(err)
	}

	member := &discordgo.ApplicationCommandInteractionDataOption{Name: "member", Type: discordgo.ApplicationCommandOptionUser, Value: "u2"}
	f.h.Handle(ctx, slash("u1", "show", member))

	resp := f.resp.last(t)
	want := "Characters for <@u2>:\n**Class:** Tank\n**Character(s):** Groot, Thor\n\n**Class:** Healer\n**Character(s):** Mantis"
	if resp.Data.Content != want || isEphemeral(resp) {
		t.Fatalf("show = %q (ephemeral %v), want %q", resp.Data.Content, isEphemeral(resp), want)
	}

	f.h.Handle(ctx, slash("u1", "show"))
	if got := f.resp.last(t).Data.Content; got != "No characters found for <@u1>." {
		t.Fatalf("own empty show = %q", got)
	}
}

func TestCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "counter", strOpt("character", "bucky")))
	resp := f.resp.last(t)
	if isEphemeral(resp) || !strings.HasPrefix(resp.Data.Content, "**Character:** Winter Soldier\n**Hard Counter:**") {
		t.Fatalf("counter reply = %q", resp.Data.Content)
	}

	f.h.Handle(ctx, slash("u1", "counter", strOpt("character", "Galacta")))
	resp = f.resp.last(t)
	if !isEphemeral(resp) || resp.Data.Content != "No counter information found for **Galacta**." {
		t.Fatalf("unknown counter reply = %q", resp.Data.Content)
	}
}

func TestRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "request",
		strOpt("command_name", "team"),
		strOpt("slash_command", "/team"),
		strOpt("description", "suggest a team"),
	))
	if got := f.resp.last(t).Data.Content; !strings.Contains(got, "**team** has been successfully submitted") {
		t.Fatalf("request reply = %q", got)
	}

	reqs, err := f.store.ListRequests(ctx, 10)
	if err != nil || len(reqs) != 1 || reqs[0].RequestedBy != "u1-name" {
		t.Fatalf("requests = %+v, %v", reqs, err)
	}

	f.h.Handle(ctx, slash("u1", "request", strOpt("command_name", "team")))
	if got := f.resp.last(t).Data.Content; got != "Please provide both the command name and the description." {
		t.Fatalf("incomplete request reply = %q", got)
	}
}

func TestRunningChars(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "runningchars"))
	if got := f.resp.last(t).Data.Content; got != "You don't have permission to access this command." {
		t.Fatalf("unauthorized reply = %q", got)
	}

	f.h.Handle(ctx, slash("admin", "runningchars"))
	f.h.Handle(ctx, click("admin", findID(t, componentIDs(f.resp.last(t)), ":class:healer")))
	modal := f.resp.last(t)
	f.h.Handle(ctx, submit("admin", modal.Data.CustomID, "name", "luna snow"))

	if got := f.resp.last(t).Data.Content; got != "Character **Luna Snow** of class **Healer** added successfully!" {
		t.Fatalf("running add reply = %q", got)
	}
	pool, err := f.store.RunningPool(ctx, store.ClassHealer)
	if err != nil || len(pool) != 1 || pool[0] != "Luna Snow" {
		t.Fatalf("healer pool = %v, %v", pool, err)
	}
}

func TestLearningFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.h.Handle(ctx, slash("u1", "learning"))
	if got := f.resp.last(t).Data.Content; got != "No available characters found for the selected classes." {
		t.Fatalf("empty pool reply = %q", got)
	}

	for _, name := range []string{"Groot", "Thor"} {
		if _, err := f.store.AddRunningCharacter(ctx, store.ClassTank, name, "admin"); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.store.AddRunningCharacter(ctx, store.ClassHealer, "Mantis", "admin"); err != nil {
		t.Fatal(err)
	}
	// Already listed under a scoring class and in Learning.
	if _, err := f.store.AddCharacters(ctx, "u1", "g1", store.ClassTank, []string{"Thor"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.AddCharacters(ctx, "u1", "g1", store.ClassLearning, []string{"Mantis"}); err != nil {
		t.Fatal(err)
	}

	f.h.Handle(ctx, slash("u1", "learning"))
	ids := componentIDs(f.resp.last(t))
	if len(ids) != 4 {
		t.Fatalf("components = %v, want two menus plus cancel and submit", ids)
	}

	f.h.Handle(ctx, click("u1", findID(t, ids, ":select:tank"), "Thor"))
	update := f.resp.last(t)
	if update.Type != discordgo.InteractionResponseUpdateMessage || !strings.Contains(update.Data.Content, "**Thor**") {
		t.Fatalf("select update = %+v", update.Data)
	}
	f.h.Handle(ctx, click("u1", findID(t, ids, ":select:healer"), "Mantis"))
	f.h.Handle(ctx, click("u1", findID(t, ids, ":submit")))

	got := f.resp.last(t).Data.Content
	if !strings.Contains(got, "updated with: **Thor**") || !strings.Contains(got, "Already in your Learning class: **Mantis**") {
		t.Fatalf("submit reply = %q", got)
	}

	roster, err := f.store.Roster(ctx, "u1", "g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roster) != 2 || roster[0].Class != store.ClassTank || roster[0].Characters[0] != "Thor" {
		t.Fatalf("roster = %+v, want Thor kept in Tank and added to Learning", roster)
	}
}

func TestLearningCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddRunningCharacter(ctx, store.ClassDPS, "Storm", "admin"); err != nil {
		t.Fatal(err)
	}

	f.h.Handle(ctx, slash("u1", "learning"))
	ids := componentIDs(f.resp.last(t))
	f.h.Handle(ctx, click("u1", findID(t, ids, ":cancel")))
	if got := f.resp.last(t).Data.Content; got != "You have canceled the character addition process." {
		t.Fatalf("cancel reply = %q", got)
	}
	f.h.Handle(ctx, click("u1", findID(t, ids, ":submit")))
	if got := f.resp.last(t).Data.Content; got != msgExpired {
		t.Fatalf("submit after cancel = %q", got)
	}
}

func TestCommandsHelp(t *testing.T) {
	f := newFixture(t)
	f.h.Handle(context.Background(), slash("u1", "commands"))

	got := f.resp.last(t).Data.Content
	for _, want := range []string{"/add", "/counter", "/request"} {
		if !strings.Contains(got, want) {
			t.Fatalf("help missing %s:\n%s", want, got)
		}
	}
	for _, hidden := range []string{"/time", "/runningchars"} {
		if strings.Contains(got, hidden) {
			t.Fatalf("help lists %s:\n%s", hidden, got)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.h.Handle(context.Background(), slash("u1", "ban"))
	if got := f.resp.last(t).Data.Content; got != "Unknown command." {
		t.Fatalf("unknown command reply = %q", got)
	}
}
