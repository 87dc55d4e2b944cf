package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/seedtray/unified2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func record(recordType uint32, values ...interface{}) []byte {
	var payload bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&payload, binary.BigEndian, v); err != nil {
			panic(err)
		}
	}
	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, []uint32{recordType, uint32(payload.Len())})
	b.Write(payload.Bytes())
	return b.Bytes()
}

// event encodes an IPv4 v1 event with the given id.
func event(id uint32) []byte {
	return record(unified2.TypeEvent,
		uint32(1), id, uint32(1500000000), uint32(0), uint32(2010935), uint32(1), uint32(2), uint32(3), uint32(1),
		[]byte{10, 0, 0, 1}, []byte{192, 168, 1, 20},
		uint16(41000), uint16(80), uint8(6), uint8(0), uint8(0), uint8(0))
}

func packet(id uint32, data []byte) []byte {
	return record(unified2.TypePacket,
		uint32(1), id, uint32(1500000000), uint32(1500000000), uint32(0), uint32(1), uint32(len(data)), data)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(g *WithT, args ...string) []map[string]interface{} {
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	g.Expect(Execute()).To(Succeed())

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(nil, 1<<20)
	for scanner.Scan() {
		var line map[string]interface{}
		g.Expect(json.Unmarshal(scanner.Bytes(), &line)).To(Succeed())
		lines = append(lines, line)
	}
	return lines
}

func writeSpool(g *WithT, dir, name string, chunks ...[]byte) string {
	path := filepath.Join(dir, name)
	g.Expect(os.WriteFile(path, bytes.Join(chunks, nil), 0o644)).To(Succeed())
	return path
}

func TestDump(t *testing.T) {
	g := NewGomegaWithT(t)
	dir := t.TempDir()
	path := writeSpool(g, dir, "unified2.log.1", event(1), packet(1, []byte("abc")), event(2))

	lines := run(g, "dump", path)
	g.Expect(lines).To(HaveLen(2))
	g.Expect(lines[0]).To(HaveKeyWithValue("event-id", BeNumerically("==", 1)))
	g.Expect(lines[0]).To(HaveKeyWithValue("source-ip", "10.0.0.1"))
	g.Expect(lines[0]["packets"]).To(HaveLen(1))
	g.Expect(lines[1]).To(HaveKeyWithValue("event-id", BeNumerically("==", 2)))
	g.Expect(lines[1]["packets"]).To(BeEmpty())

	lines = run(g, "dump", "--records", path)
	g.Expect(lines).To(HaveLen(3))
	g.Expect(lines[0]).To(HaveKeyWithValue("kind", "event"))
	g.Expect(lines[1]).To(HaveKeyWithValue("kind", "packet"))
	g.Expect(lines[1]).To(HaveKeyWithValue("type", BeNumerically("==", unified2.TypePacket)))
	g.Expect(lines[2]).To(HaveKeyWithValue("kind", "event"))
}

func TestDumpMissingFile(t *testing.T) {
	g := NewGomegaWithT(t)
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"dump", filepath.Join(t.TempDir(), "missing")})
	g.Expect(Execute()).ToNot(Succeed())
}

func TestTailBookmark(t *testing.T) {
	g := NewGomegaWithT(t)
	spool := t.TempDir()
	bookmark := filepath.Join(t.TempDir(), "bookmark")
	writeSpool(g, spool, "u2.1", event(1), packet(1, []byte("abc")))
	writeSpool(g, spool, "u2.2", event(2))
	writeSpool(g, spool, "other.1", event(99))

	args := []string{"tail", "--dir", spool, "--prefix", "u2", "--bookmark", bookmark}
	lines := run(g, args...)
	g.Expect(lines).To(HaveLen(2))
	g.Expect(lines[0]).To(HaveKeyWithValue("event-id", BeNumerically("==", 1)))
	g.Expect(lines[1]).To(HaveKeyWithValue("event-id", BeNumerically("==", 2)))

	saved, err := os.ReadFile(bookmark)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(saved)).To(ContainSubstring("filename: u2.2"))

	g.Expect(run(g, args...)).To(BeEmpty())

	f, err := os.OpenFile(filepath.Join(spool, "u2.2"), os.O_APPEND|os.O_WRONLY, 0)
	g.Expect(err).ToNot(HaveOccurred())
	_, err = f.Write(bytes.Join([][]byte{packet(2, []byte("de")), event(3)}, nil))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(f.Close()).To(Succeed())

	lines = run(g, args...)
	g.Expect(lines).To(HaveLen(1))
	g.Expect(lines[0]).To(HaveKeyWithValue("event-id", BeNumerically("==", 3)))
}

func TestTailRequiresDir(t *testing.T) {
	g := NewGomegaWithT(t)
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"tail"})
	g.Expect(Execute()).To(MatchError(ContainSubstring("spool.dir is required")))
}

func TestLogFileClosedOnError(t *testing.T) {
	g := NewGomegaWithT(t)
	tmp := t.TempDir()
	logFile := filepath.Join(tmp, "u2spool.log")
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"tail",
		"--dir", filepath.Join(tmp, "missing"),
		"--bookmark", filepath.Join(tmp, "bookmark"),
		"--log-file", logFile,
	})

	g.Expect(Execute()).To(HaveOccurred())
	g.Expect(logCloser).To(BeNil())
	logged, err := os.ReadFile(logFile)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(logged)).To(ContainSubstring("no bookmark at"))
}
