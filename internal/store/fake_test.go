package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/guildstore/internal/gateway"
	"github.com/dmitrijs2005/guildstore/internal/logging"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

const fakeGroupID = "900"

type fakeAction int

const (
	pass fakeAction = iota
	reject
	drop
	// lose applies the write, then hangs up before answering.
	lose
)

type fakeFile struct {
	attachment
	data []byte
}

type fakeMessage struct {
	entry
	files []fakeFile
}

// fakePlatform is an in-memory stand-in for the chat platform's REST API.
type fakePlatform struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	nextID   int
	nodes    map[string]*node
	messages map[string][]*fakeMessage
	cdn      map[string][]byte
	requests []string

	// intercept decides the fate of a message write before it is applied.
	intercept func(method, nodeID, content string) fakeAction
	// onDelete runs before a message delete is applied.
	onDelete func(nodeID, id string)
}

func (fp *fakePlatform) setDeleteHook(fn func(nodeID, id string)) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.onDelete = fn
}

func (fp *fakePlatform) setIntercept(fn func(method, nodeID, content string) fakeAction) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.intercept = fn
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{
		t:        t,
		nextID:   1000,
		nodes:    make(map[string]*node),
		messages: make(map[string][]*fakeMessage),
		cdn:      make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /guilds/{g}/channels", fp.listNodes)
	mux.HandleFunc("POST /guilds/{g}/channels", fp.createNode)
	mux.HandleFunc("GET /channels/{id}", fp.getNode)
	mux.HandleFunc("PATCH /channels/{id}", fp.renameNode)
	mux.HandleFunc("DELETE /channels/{id}", fp.deleteNode)
	mux.HandleFunc("GET /channels/{id}/messages", fp.listMessages)
	mux.HandleFunc("POST /channels/{id}/messages", fp.postMessage)
	mux.HandleFunc("GET /channels/{id}/messages/{mid}", fp.getMessage)
	mux.HandleFunc("PATCH /channels/{id}/messages/{mid}", fp.editMessage)
	mux.HandleFunc("DELETE /channels/{id}/messages/{mid}", fp.deleteMessage)
	mux.HandleFunc("GET /cdn/{rest...}", fp.download)

	fp.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		fp.requests = append(fp.requests, r.Method+" "+r.URL.Path)
		fp.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fp.srv.Close)
	return fp
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakePlatform) {
	t.Helper()
	fp := newFakePlatform(t)
	gw := gateway.New(gateway.Config{
		BaseURL:     fp.srv.URL,
		Token:       "test-token",
		BaseBackoff: time.Millisecond,
		MaxJitter:   -1,
	}, logging.Discard())

	opts = append([]Option{WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })}, opts...)
	return New(gw, fakeGroupID, logging.Discard(), opts...), fp
}

func (fp *fakePlatform) id() string {
	fp.nextID++
	return strconv.Itoa(fp.nextID)
}

func (fp *fakePlatform) requestCount() int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.requests)
}

func (fp *fakePlatform) countRequests(method, suffix string) int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	n := 0
	for _, r := range fp.requests {
		if strings.HasPrefix(r, method+" ") && strings.HasSuffix(r, suffix) {
			n++
		}
	}
	return n
}

// entryCount is the number of messages stored in a node, staged ones included.
func (fp *fakePlatform) entryCount(nodeID string) int {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return len(fp.messages[nodeID])
}

func (fp *fakePlatform) removeMessage(nodeID, id string) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.messages[nodeID] = slices.DeleteFunc(fp.messages[nodeID], func(m *fakeMessage) bool { return m.ID == id })
}

// seedMessage stores a message directly, bypassing the store.
func (fp *fakePlatform) seedMessage(nodeID, content string, files map[string][]byte, order ...string) string {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	m := &fakeMessage{entry: entry{ID: fp.id(), ChannelID: nodeID, Content: content, Timestamp: time.Now().UTC()}}
	names := order
	if len(names) == 0 {
		for name := range files {
			names = append(names, name)
		}
		slices.Sort(names)
	}
	for _, name := range names {
		fp.addFile(m, name, files[name])
	}
	fp.messages[nodeID] = append(fp.messages[nodeID], m)
	return m.ID
}

func (fp *fakePlatform) addFile(m *fakeMessage, name string, data []byte) {
	attID := fp.id()
	url := fmt.Sprintf("%s/cdn/%s/%s", fp.srv.URL, attID, name)
	fp.cdn[url] = data
	m.files = append(m.files, fakeFile{attachment: attachment{ID: attID, Filename: name, Size: int64(len(data)), URL: url}, data: data})
}

func (m *fakeMessage) view() entry {
	e := m.entry
	e.Attachments = make([]attachment, 0, len(m.files))
	for _, f := range m.files {
		e.Attachments = append(e.Attachments, f.attachment)
	}
	return e
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Unknown", "code": 10003})
}

func (fp *fakePlatform) listNodes(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	out := make([]node, 0, len(fp.nodes))
	for _, n := range fp.nodes {
		out = append(out, *n)
	}
	slices.SortFunc(out, func(a, b node) int { return a.Position - b.Position })
	writeJSON(w, http.StatusOK, out)
}

func (fp *fakePlatform) createNode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Type     int    `json:"type"`
		ParentID string `json:"parent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid Form Body", "code": 50035})
		return
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if in.ParentID != "" {
		if p, ok := fp.nodes[in.ParentID]; !ok || p.Type != nodeTypeContainer {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid Form Body", "code": 50035})
			return
		}
	}
	n := &node{ID: fp.id(), Name: in.Name, Type: in.Type, ParentID: in.ParentID, Position: len(fp.nodes)}
	fp.nodes[n.ID] = n
	writeJSON(w, http.StatusCreated, n)
}

func (fp *fakePlatform) getNode(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	n, ok := fp.nodes[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (fp *fakePlatform) renameNode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	n, ok := fp.nodes[r.PathValue("id")]
	if !ok {
		notFound(w)
		return
	}
	n.Name = in.Name
	writeJSON(w, http.StatusOK, n)
}

func (fp *fakePlatform) deleteNode(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	id := r.PathValue("id")
	n, ok := fp.nodes[id]
	if !ok {
		notFound(w)
		return
	}
	delete(fp.nodes, id)
	delete(fp.messages, id)
	if n.Type == nodeTypeContainer {
		for cid, c := range fp.nodes {
			if c.ParentID == id {
				delete(fp.nodes, cid)
				delete(fp.messages, cid)
			}
		}
	}
	writeJSON(w, http.StatusOK, n)
}

func (fp *fakePlatform) listMessages(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	id := r.PathValue("id")
	if _, ok := fp.nodes[id]; !ok {
		notFound(w)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	before, _ := strconv.Atoi(r.URL.Query().Get("before"))

	out := make([]entry, 0)
	msgs := fp.messages[id]
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		mid, _ := strconv.Atoi(msgs[i].ID)
		if before != 0 && mid >= before {
			continue
		}
		out = append(out, msgs[i].view())
	}
	writeJSON(w, http.StatusOK, out)
}

type fakeWrite struct {
	content        string
	hasAttachments bool
	files          map[string][]byte
	order          []string
}

func readWrite(r *http.Request) (fakeWrite, error) {
	var fw fakeWrite
	var payload []byte

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			return fw, err
		}
		payload = []byte(r.FormValue("payload_json"))
		fw.files = make(map[string][]byte)
		for i := 0; ; i++ {
			fhs := r.MultipartForm.File[fmt.Sprintf("files[%d]", i)]
			if len(fhs) == 0 {
				break
			}
			f, err := fhs[0].Open()
			if err != nil {
				return fw, err
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return fw, err
			}
			fw.files[fhs[0].Filename] = data
			fw.order = append(fw.order, fhs[0].Filename)
		}
	} else {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return fw, err
		}
		payload = b
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fw, err
	}
	if c, ok := raw["content"]; ok {
		_ = json.Unmarshal(c, &fw.content)
	}
	_, fw.hasAttachments = raw["attachments"]
	return fw, nil
}

// apply runs the intercept hook; it reports whether the write should go on.
func (fp *fakePlatform) apply(w http.ResponseWriter, method, nodeID, content string) (fakeAction, bool) {
	fp.mu.Lock()
	intercept := fp.intercept
	fp.mu.Unlock()
	if intercept == nil {
		return pass, true
	}
	switch act := intercept(method, nodeID, content); act {
	case reject:
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Cannot send an empty message", "code": 50006})
		return act, false
	case drop:
		fp.hangUp(w)
		return act, false
	default:
		return act, true
	}
}

func (fp *fakePlatform) hangUp(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	require.True(fp.t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(fp.t, err)
	_ = conn.Close()
}

func (fp *fakePlatform) postMessage(w http.ResponseWriter, r *http.Request) {
	fw, err := readWrite(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	id := r.PathValue("id")
	act, ok := fp.apply(w, http.MethodPost, id, fw.content)
	if !ok {
		return
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if _, ok := fp.nodes[id]; !ok {
		notFound(w)
		return
	}
	m := &fakeMessage{entry: entry{ID: fp.id(), ChannelID: id, Content: fw.content, Timestamp: time.Now().UTC()}}
	for _, name := range fw.order {
		fp.addFile(m, name, fw.files[name])
	}
	fp.messages[id] = append(fp.messages[id], m)
	if act == lose {
		fp.hangUp(w)
		return
	}
	writeJSON(w, http.StatusOK, m.view())
}

func (fp *fakePlatform) findMessage(nodeID, id string) *fakeMessage {
	for _, m := range fp.messages[nodeID] {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (fp *fakePlatform) getMessage(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	m := fp.findMessage(r.PathValue("id"), r.PathValue("mid"))
	if m == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, m.view())
}

func (fp *fakePlatform) editMessage(w http.ResponseWriter, r *http.Request) {
	fw, err := readWrite(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
		return
	}
	act, ok := fp.apply(w, http.MethodPatch, r.PathValue("id"), fw.content)
	if !ok {
		return
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	m := fp.findMessage(r.PathValue("id"), r.PathValue("mid"))
	if m == nil {
		notFound(w)
		return
	}
	m.Content = fw.content
	now := time.Now().UTC()
	m.EditedTimestamp = &now
	if fw.hasAttachments {
		m.files = nil
		for _, name := range fw.order {
			fp.addFile(m, name, fw.files[name])
		}
	}
	if act == lose {
		fp.hangUp(w)
		return
	}
	writeJSON(w, http.StatusOK, m.view())
}

func (fp *fakePlatform) deleteMessage(w http.ResponseWriter, r *http.Request) {
	nodeID, id := r.PathValue("id"), r.PathValue("mid")
	fp.mu.Lock()
	hook := fp.onDelete
	fp.mu.Unlock()
	if hook != nil {
		hook(nodeID, id)
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.findMessage(nodeID, id) == nil {
		notFound(w)
		return
	}
	fp.messages[nodeID] = slices.DeleteFunc(fp.messages[nodeID], func(m *fakeMessage) bool { return m.ID == id })
	w.WriteHeader(http.StatusNoContent)
}

func (fp *fakePlatform) download(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	data, ok := fp.cdn[fp.srv.URL+r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

// memJournal is an in-memory Journal.
type memJournal struct {
	mu    sync.Mutex
	parts []models.StagedPart
}

func (j *memJournal) Stage(_ context.Context, parts ...models.StagedPart) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.parts = append(j.parts, parts...)
	return nil
}

func (j *memJournal) Clear(_ context.Context, draftID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.parts = slices.DeleteFunc(j.parts, func(p models.StagedPart) bool { return p.DraftID == draftID })
	return nil
}

func (j *memJournal) Pending(_ context.Context) ([]models.StagedPart, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.parts), nil
}

func (j *memJournal) len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.parts)
}

// memMirror is an in-memory Mirror.
type memMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memMirror) Put(_ context.Context, key string, content []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = slices.Clone(content)
	return nil
}

func (m *memMirror) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memMirror) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

