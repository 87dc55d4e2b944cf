package unified2

import (
	"io"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

func TestFileEventReader(t *testing.T) {
	g := NewGomegaWithT(t)
	fs := afero.NewMemMapFs()
	writeFile(fs, "/u2/f1", encode(newEvent(1), newPacket(1, "a")))
	writeFile(fs, "/u2/f2", encode(newEvent(2), newExtraData(2, "b")))

	reader, err := NewFileEventReader(fs, "/u2/f1", "/u2/f2")
	g.Expect(err).ToNot(HaveOccurred())
	defer reader.Close()

	first, err := reader.Next()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(first.EventID).To(Equal(uint32(1)))
	g.Expect(first.Packets).To(Equal([]*Packet{newPacket(1, "a")}))

	second, err := reader.Next()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(second.EventID).To(Equal(uint32(2)))
	g.Expect(second.ExtraData).To(Equal([]*ExtraData{newExtraData(2, "b")}))

	_, err = reader.Next()
	g.Expect(err).To(Equal(io.EOF))
	_, err = reader.Next()
	g.Expect(err).To(Equal(io.EOF))
}

func TestFileRecordReaderChainsFiles(t *testing.T) {
	g := NewGomegaWithT(t)
	fs := afero.NewMemMapFs()
	writeFile(fs, "/u2/a", encode(newEvent(1)))
	writeFile(fs, "/u2/empty", nil)
	writeFile(fs, "/u2/b", encode(newPacket(1, "x"), newEvent(2)))

	reader, err := NewFileRecordReader(fs, "/u2/a", "/u2/empty", "/u2/b")
	g.Expect(err).ToNot(HaveOccurred())
	defer reader.Close()

	var kinds []Kind
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}
		g.Expect(err).ToNot(HaveOccurred())
		kinds = append(kinds, rec.Kind())
	}
	g.Expect(kinds).To(Equal([]Kind{KindEvent, KindPacket, KindEvent}))

	name, offset := reader.Tell()
	g.Expect(name).To(Equal("/u2/b"))
	g.Expect(offset).To(Equal(int64(len(encode(newPacket(1, "x"), newEvent(2))))))

	_, err = reader.Next()
	g.Expect(err).To(Equal(io.EOF))
}

func TestFileRecordReaderIncompleteIsNotSkipped(t *testing.T) {
	g := NewGomegaWithT(t)
	fs := afero.NewMemMapFs()
	data := encode(newEvent(1))
	writeFile(fs, "/u2/a", data[:len(data)-1])
	writeFile(fs, "/u2/b", encode(newEvent(2)))

	reader, err := NewFileRecordReader(fs, "/u2/a", "/u2/b")
	g.Expect(err).ToNot(HaveOccurred())
	defer reader.Close()

	_, err = reader.Next()
	g.Expect(err).To(Equal(ErrIncomplete))
	_, err = reader.Next()
	g.Expect(err).To(Equal(ErrIncomplete))
	name, offset := reader.Tell()
	g.Expect(name).To(Equal("/u2/a"))
	g.Expect(offset).To(BeZero())
}

func TestFileRecordReaderErrors(t *testing.T) {
	g := NewGomegaWithT(t)
	fs := afero.NewMemMapFs()

	_, err := NewFileRecordReader(fs)
	g.Expect(err).To(Equal(ErrNoFiles))

	_, err = NewFileEventReader(fs, "/missing")
	g.Expect(err).To(HaveOccurred())

	writeFile(fs, "/u2/a", encode(newEvent(1)))
	reader, err := NewFileRecordReader(fs, "/u2/a", "/missing")
	g.Expect(err).ToNot(HaveOccurred())
	_, err = reader.Next()
	g.Expect(err).ToNot(HaveOccurred())
	_, err = reader.Next()
	g.Expect(err).To(HaveOccurred())
	g.Expect(err).ToNot(Equal(io.EOF))
	_, err = reader.Next()
	g.Expect(err).To(Equal(io.EOF))
}

func TestFileEventReaderWithoutEvents(t *testing.T) {
	g := NewGomegaWithT(t)
	fs := afero.NewMemMapFs()
	writeFile(fs, "/u2/a", encode(newPacket(1, "orphan")))

	reader, err := NewFileEventReader(fs, "/u2/a")
	g.Expect(err).ToNot(HaveOccurred())
	_, err = reader.Next()
	g.Expect(err).To(Equal(io.EOF))
}
