package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// File is one attachment part.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Multipart is an ordered form payload: text fields first, then every file
// under FileField in submission order.
type Multipart struct {
	FileField string
	fields    [][2]string
	files     []File
}

// NewMultipart returns an empty payload whose files share fileField.
func NewMultipart(fileField string) *Multipart {
	return &Multipart{FileField: fileField}
}

// AddField appends a text part.
func (m *Multipart) AddField(name, value string) *Multipart {
	m.fields = append(m.fields, [2]string{name, value})
	return m
}

// AddFile appends a file part.
func (m *Multipart) AddFile(file File) *Multipart {
	m.files = append(m.files, file)
	return m
}

// Files returns the attached files.
func (m *Multipart) Files() []File {
	return m.files
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range m.fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field[0], err)
		}
	}
	for _, file := range m.files {
		part, err := createFilePart(writer, m.FileField, file)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write file %s: %w", file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalise multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func createFilePart(writer *multipart.Writer, field string, file File) (io.Writer, error) {
	if file.ContentType == "" {
		part, err := writer.CreateFormFile(field, file.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part for %s: %w", file.Name, err)
		}
		return part, nil
	}
	header := make(textproto.MIMEHeader, 2)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create part for %s: %w", file.Name, err)
	}
	return part, nil
}
