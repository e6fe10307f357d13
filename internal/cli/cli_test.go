package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/service"
)

// chatServer fakes the chat API: POST /api/chat and GET / for health.
type chatServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []api.ChatRequest
	fragments []string
	status    int
	errBody   string
}

func newChatServer(fragments ...string) *chatServer {
	s := &chatServer{fragments: fragments, status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.chat)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","message":"Enquiry API is running"}`))
	})
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *chatServer) chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	s.requests = append(s.requests, req)
	status, errBody, fragments := s.status, s.errBody, s.fragments
	s.mu.Unlock()

	if status != http.StatusOK {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(errBody))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	flusher, _ := w.(http.Flusher)
	for _, f := range fragments {
		_, _ = w.Write([]byte(f))
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *chatServer) fail(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.errBody = status, body
}

func (s *chatServer) lastRequest() api.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	Expect(s.requests).NotTo(BeEmpty())
	return s.requests[len(s.requests)-1]
}

func setEnv(key, value string) {
	old, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func execute(args ...string) (string, string, error) {
	cmd := NewRootCmd("1.2.3")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

var _ = Describe("Enquiry CLI", func() {
	BeforeEach(func() {
		setEnv("HOME", GinkgoT().TempDir())
		setEnv(config.ServerEnv, "")
	})

	Describe("version", func() {
		It("prints the version", func() {
			out, _, err := execute("version")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("enquiry 1.2.3\n"))
		})
	})

	Describe("set", func() {
		It("saves the language to the profile", func() {
			out, _, err := execute("set", "lang", "Gujarati")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("lang set to Gujarati"))

			cfg, err := config.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Language).To(Equal(config.Gujarati))
		})

		It("joins a multi-word name and clears it with -", func() {
			_, _, err := execute("set", "name", "Asha", "Patel")
			Expect(err).NotTo(HaveOccurred())
			cfg, _ := config.Load("")
			Expect(cfg.CustomerName).To(Equal("Asha Patel"))

			_, _, err = execute("set", "name", "-")
			Expect(err).NotTo(HaveOccurred())
			cfg, _ = config.Load("")
			Expect(cfg.CustomerName).To(BeEmpty())
		})

		It("writes to the selected profile only", func() {
			_, _, err := execute("--profile", "staging", "set", "server", "http://staging.local/api/")
			Expect(err).NotTo(HaveOccurred())

			staging, _ := config.Load("staging")
			Expect(staging.Server).To(Equal("http://staging.local/api"))
			def, _ := config.Load("")
			Expect(def.Server).To(BeEmpty())
		})

		It("rejects invalid values", func() {
			_, _, err := execute("set", "lang", "fr")
			Expect(err).To(MatchError(ContainSubstring("unsupported language")))

			_, _, err = execute("set", "server", "localhost:3000")
			Expect(err).To(MatchError(ContainSubstring("invalid server URL")))

			_, _, err = execute("set", "colour", "blue")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})
	})

	Describe("config and profiles", func() {
		It("shows defaults for an empty profile", func() {
			out, _, err := execute("config")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(config.DefaultServer))
			Expect(out).To(ContainSubstring("English"))
			Expect(out).To(ContainSubstring("(not set)"))
		})

		It("masks the token", func() {
			_, _, err := execute("set", "token", "abcdefghijklmnop")
			Expect(err).NotTo(HaveOccurred())
			out, _, err := execute("config")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("abcdefgh..."))
			Expect(out).NotTo(ContainSubstring("abcdefghijklmnop"))
		})

		It("marks the active profile", func() {
			_, _, err := execute("--profile", "staging", "set", "lang", "en")
			Expect(err).NotTo(HaveOccurred())

			out, _, err := execute("--profile", "staging", "profiles")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("●"))
			Expect(out).To(ContainSubstring("staging"))
		})

		It("warns when nothing is configured", func() {
			out, _, err := execute("profiles")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No profiles configured"))
		})
	})

	Describe("ask", func() {
		var srv *chatServer

		BeforeEach(func() {
			srv = newChatServer("Our basic plan ", "costs ₹100.")
			DeferCleanup(srv.Close)
			setEnv(config.ServerEnv, srv.URL+"/api")
		})

		It("prints the streamed reply verbatim when piped", func() {
			out, _, err := execute("ask", "basic", "plan", "price?")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Our basic plan costs ₹100.\n"))

			req := srv.lastRequest()
			Expect(req.Message).To(Equal("basic plan price?"))
			Expect(req.Language).To(Equal("en"))
			Expect(req.CustomerName).To(BeEmpty())
		})

		It("applies the language and name flags over the profile", func() {
			_, _, err := execute("set", "lang", "en")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = execute("ask", "--lang", "gu", "--name", "Asha", "price?")
			Expect(err).NotTo(HaveOccurred())

			req := srv.lastRequest()
			Expect(req.Language).To(Equal("gu"))
			Expect(req.CustomerName).To(Equal("Asha"))
		})

		It("sends the profile language when no flag is given", func() {
			_, _, err := execute("set", "lang", "gu")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = execute("ask", "price?")
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.lastRequest().Language).To(Equal("gu"))
		})

		It("reads the whole reply with --no-stream", func() {
			out, _, err := execute("ask", "--no-stream", "price?")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Our basic plan costs ₹100.\n"))
		})

		It("reports server failures with the suggestion", func() {
			srv.fail(http.StatusInternalServerError, `{"error":"model overloaded","suggestion":"Try again in a minute."}`)

			out, errOut, err := execute("ask", "price?")
			Expect(err).To(HaveOccurred())
			Expect(Reported(err)).To(BeTrue())
			Expect(out).To(BeEmpty())
			Expect(errOut).To(ContainSubstring(service.MsgFailed))
			Expect(errOut).To(ContainSubstring("Try again in a minute."))
		})

		It("rejects a blank question without calling the server", func() {
			_, errOut, err := execute("ask", "   ")
			Expect(Reported(err)).To(BeTrue())
			Expect(errOut).To(ContainSubstring("Question is empty."))

			srv.mu.Lock()
			defer srv.mu.Unlock()
			Expect(srv.requests).To(BeEmpty())
		})

		It("rejects an unknown language flag", func() {
			_, _, err := execute("ask", "--lang", "fr", "price?")
			Expect(err).To(MatchError(ContainSubstring("unsupported language")))
			Expect(Reported(err)).To(BeFalse())
		})

		It("requires a question", func() {
			_, _, err := execute("ask")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("status", func() {
		It("shows the health of the server", func() {
			srv := newChatServer()
			DeferCleanup(srv.Close)
			setEnv(config.ServerEnv, srv.URL+"/api")

			out, _, err := execute("status")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Server Status"))
			Expect(out).To(ContainSubstring("success"))
			Expect(out).To(ContainSubstring("Enquiry API is running"))
		})

		It("reports an unreachable server", func() {
			srv := newChatServer()
			url := srv.URL
			srv.Close()
			setEnv(config.ServerEnv, url+"/api")

			_, errOut, err := execute("status")
			Expect(Reported(err)).To(BeTrue())
			Expect(errOut).To(ContainSubstring("unreachable"))
		})
	})
})
