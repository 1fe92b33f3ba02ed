// Command ccnfwd is the forwarding daemon: it owns the Face, PIT, FIB, and
// Content Store, running forwarder.Forwarder's event loop, and — when a
// repository data directory is configured — the repository engine (§4.9) as
// a second goroutine attached to the same face table over a local IPC face
// (§5's "repository workers run on a dedicated thread... communication...
// via the same face abstraction, no shared memory"). A separate repository
// process isn't possible under that design, since attaching requires the
// live *face.FaceTable instance; this is the combined daemon, not a
// forwarder-only one. Entrypoint shape (thin main delegating to a cobra
// command, signal-driven shutdown) grounded on fw/cmd/cmd.go and
// fw/cmd/yanfd/main.go.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Atsuko87/ccnx-sub001/colog"
	"github.com/Atsuko87/ccnx-sub001/config"
	"github.com/Atsuko87/ccnx-sub001/face"
	"github.com/Atsuko87/ccnx-sub001/forwarder"
	"github.com/Atsuko87/ccnx-sub001/name"
	"github.com/Atsuko87/ccnx-sub001/reg"
	"github.com/Atsuko87/ccnx-sub001/repo"
	"github.com/Atsuko87/ccnx-sub001/sec"
)

type subsys string

func (s subsys) String() string { return string(s) }

const logSubsys subsys = "ccnfwd"

// Fixed local identities, grounded on the ccnx:/local/... reserved-namespace
// convention: daemonIdentity is the forwarder's own registration-protocol
// prefix, repoIdentity the repository's.
var (
	daemonIdentity = mustName("/local/ccnfwd")
	daemonKeyName  = mustName("/local/ccnfwd/KEY/default")
	repoIdentity   = mustName("/local/ccnr")
	repoKeyName    = mustName("/local/ccnr/KEY/default")
)

func mustName(uri string) name.Name {
	n, err := name.FromURI(uri)
	if err != nil {
		panic(err)
	}
	return n
}

var rootCmd = &cobra.Command{
	Use:   "ccnfwd",
	Short: "CCN forwarding and repository daemon",
	RunE:  run,
}

var (
	configPath         string
	keychainPassphrase string
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.Flags().StringVar(&keychainPassphrase, "keychain-passphrase", "", "seal the keychain's private keys at rest under this passphrase")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	colog.SetOutput(os.Stderr, cfg.LogLevel)

	kc, err := sec.OpenKeychain(filepath.Join(cfg.Directory, "keys.db"))
	if err != nil {
		return fmt.Errorf("ccnfwd: opening keychain: %w", err)
	}
	defer kc.Close()
	if keychainPassphrase != "" {
		if err := kc.UsePassphrase([]byte(keychainPassphrase)); err != nil {
			return fmt.Errorf("ccnfwd: %w", err)
		}
	}

	fwdSigner, err := bootstrapKey(kc, daemonIdentity, daemonKeyName)
	if err != nil {
		return fmt.Errorf("ccnfwd: forwarder identity: %w", err)
	}
	verifier := sec.NewKeyRingVerifier()

	f := forwarder.New()
	f.Reg = reg.NewHandler(daemonIdentity, f.FIB, fwdSigner, verifier)
	f.Reg.MaxLifetime = cfg.Registration.MaxLifetime

	if len(cfg.Faces.Listen) == 0 {
		cfg.Faces.Listen = []string{fmt.Sprintf("tcp://127.0.0.1:%d", cfg.LocalPort)}
	}
	for _, uri := range cfg.Faces.Listen {
		if err := startListener(f, uri); err != nil {
			return fmt.Errorf("ccnfwd: %s: %w", uri, err)
		}
	}

	stop := make(chan struct{})
	go f.Run(stop)
	colog.Info(logSubsys, "forwarder running", "local-port", cfg.LocalPort)

	if cfg.GlobalPrefix != "" {
		repoSigner, err := bootstrapKey(kc, repoIdentity, repoKeyName)
		if err != nil {
			return fmt.Errorf("ccnfwd: repository identity: %w", err)
		}
		sec.TrustEd25519(verifier, repoSigner)

		engine, err := startRepository(cfg, repoSigner, verifier)
		if err != nil {
			return fmt.Errorf("ccnfwd: starting repository: %w", err)
		}
		if err := engine.Attach(f.Faces, daemonIdentity); err != nil {
			return fmt.Errorf("ccnfwd: attaching repository: %w", err)
		}
		go engine.Run()
		colog.Info(logSubsys, "repository attached", "directory", cfg.Directory)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	s := <-sigCh
	colog.Info(logSubsys, "received signal, shutting down", "signal", s)
	close(stop)
	return nil
}

func bootstrapKey(kc *sec.Keychain, identity, keyName name.Name) (sec.Signer, error) {
	signer, err := kc.DefaultKey(identity)
	if err == nil {
		return signer, nil
	}
	colog.Info(logSubsys, "bootstrapping identity", "identity", identity.String())
	return kc.Put(identity, keyName, true)
}

func startRepository(cfg *config.Config, signer sec.Signer, verifier sec.Verifier) (*repo.Engine, error) {
	store, err := repo.OpenStore(filepath.Join(cfg.Directory, "store"))
	if err != nil {
		return nil, err
	}

	policyPath := filepath.Join(cfg.Directory, "policy.xml")
	policy, err := loadOrBootstrapPolicy(policyPath, cfg.GlobalPrefix)
	if err != nil {
		return nil, err
	}

	keyDigest := sec.KeyDigest(signer)
	return repo.NewEngine(cfg.Directory, store, policy, signer, verifier, keyDigest), nil
}

func loadOrBootstrapPolicy(path, globalPrefix string) (*repo.Policy, error) {
	body, err := os.ReadFile(path)
	if err == nil {
		return repo.ParsePolicy(body)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	prefix, err := name.FromURI(globalPrefix)
	if err != nil {
		return nil, fmt.Errorf("ccnfwd: bad CCNR_GLOBAL_PREFIX %q: %w", globalPrefix, err)
	}
	policy := &repo.Policy{
		Version:         1,
		LocalName:       repoIdentity,
		GlobalPrefix:    prefix,
		AllowedPrefixes: []name.Name{prefix},
	}
	body, err = policy.Encode()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("ccnfwd: writing bootstrap policy: %w", err)
	}
	colog.Info(logSubsys, "bootstrapped default policy", "prefix", globalPrefix)
	return policy, nil
}

// startListener brings up one face listener from a "scheme://addr" URI,
// mirroring the teacher's per-transport listener registration in
// fw/face/face-system.go.
func startListener(f *forwarder.Forwarder, uri string) error {
	scheme, addr, ok := splitScheme(uri)
	if !ok {
		return fmt.Errorf("malformed listen uri %q", uri)
	}
	switch scheme {
	case "tcp", "unix":
		l, err := face.ListenStream(scheme, addr)
		if err != nil {
			return err
		}
		go l.Run(f.Faces, f.FrameHandler())
		colog.Info(logSubsys, "listening", "transport", scheme, "addr", addr)
	case "udp":
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return err
		}
		l, err := face.ListenDatagram(udpAddr)
		if err != nil {
			return err
		}
		go l.Run(f.Faces, f.FrameHandler())
		colog.Info(logSubsys, "listening", "transport", scheme, "addr", addr)
	case "ws":
		wsl := face.NewWebSocketListener()
		mux := http.NewServeMux()
		mux.HandleFunc("/ccn", wsl.Handler(f.Faces, f.FrameHandler()))
		srv := &http.Server{Addr: addr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				colog.Error(logSubsys, "websocket listener failed", "err", err)
			}
		}()
		colog.Info(logSubsys, "listening", "transport", scheme, "addr", addr)
	default:
		return fmt.Errorf("unsupported face scheme %q", scheme)
	}
	return nil
}

func splitScheme(uri string) (scheme, addr string, ok bool) {
	for i := 0; i+2 < len(uri); i++ {
		if uri[i] == ':' && uri[i+1] == '/' && uri[i+2] == '/' {
			return uri[:i], uri[i+3:], true
		}
	}
	return "", "", false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
