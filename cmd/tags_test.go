package cmd

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pders01/voice-schema/internal/ideas"
)

func TestTagsCommands(t *testing.T) {
	setupWorkspace(t)

	var a, b string
	seedRepo(t, time.Now(), func(repo *ideas.Repository) {
		a = createIdea(t, repo, "Recipe planner")
		b = createIdea(t, repo, "Grocery app", "food")
	})

	if _, err := run(t, tagsAddCmd, runTagsAdd, nil, a, "food", "mobile"); err != nil {
		t.Fatalf("tags add failed: %v", err)
	}

	output, err := run(t, tagsCmd, runTags, map[string]string{"json": "true"})
	if err != nil {
		t.Fatalf("tags failed: %v", err)
	}
	var counts []ideas.TagCount
	if err := json.Unmarshal([]byte(output), &counts); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, output)
	}
	want := []ideas.TagCount{{Tag: "food", Count: 2}, {Tag: "mobile", Count: 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %+v, want %+v", i, counts[i], want[i])
		}
	}

	if _, err := run(t, tagsRemoveCmd, runTagsRemove, nil, a, "mobile"); err != nil {
		t.Fatalf("tags remove failed: %v", err)
	}

	output, err = run(t, tagsCmd, runTags, map[string]string{"rename": "cooking"}, "food")
	if err != nil {
		t.Fatalf("tags --rename failed: %v", err)
	}
	if !strings.Contains(output, "on 2 idea(s)") {
		t.Errorf("unexpected output: %s", output)
	}

	repo := readRepo(t)
	for _, id := range []string{a, b} {
		idea, err := repo.Get(id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if len(idea.Tags) != 1 || idea.Tags[0] != "cooking" {
			t.Errorf("idea %s tags = %v, want [cooking]", idea.Title, idea.Tags)
		}
	}
}

func TestTagsRenameRequiresTag(t *testing.T) {
	setupWorkspace(t)

	if _, err := run(t, tagsCmd, runTags, map[string]string{"rename": "x"}); err == nil {
		t.Error("expected error without a tag argument")
	}
}

func TestTagsListEmpty(t *testing.T) {
	setupWorkspace(t)

	output, err := run(t, tagsCmd, runTags, nil)
	if err != nil {
		t.Fatalf("tags failed: %v", err)
	}
	if !strings.Contains(output, "No tags found") {
		t.Errorf("unexpected output: %s", output)
	}
}
