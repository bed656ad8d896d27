package service

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"sacredview/helper"
	"sacredview/internal/model"

	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const DefaultMongoPort = 27017

// ConnectionInput is either a URIInput or a FieldsInput.
type ConnectionInput interface {
	isConnectionInput()
}

// URIInput carries a full connection string pasted by the user.
type URIInput struct {
	URI      string
	Database string
}

// FieldsInput carries the discrete connection fields. Port is kept as the raw
// form value so that a non-numeric entry can be reported.
type FieldsInput struct {
	Host       string
	Port       string
	Username   string
	Password   string
	AuthSource string
	Database   string
}

func (URIInput) isConnectionInput()    {}
func (FieldsInput) isConnectionInput() {}

// InputFromRequest picks the URI case whenever a non-blank URI is present.
func InputFromRequest(req model.ConnectRequest) ConnectionInput {
	if uri := strings.TrimSpace(req.URI); uri != "" {
		return URIInput{URI: uri, Database: req.DBName}
	}
	return FieldsInput{
		Host:       req.Host,
		Port:       req.Port,
		Username:   req.Username,
		Password:   req.Password,
		AuthSource: req.AuthSource,
		Database:   req.DBName,
	}
}

// ResolvedConnection is a connection string plus the database to read from.
type ResolvedConnection struct {
	URI      string
	Database string
}

type Resolver struct {
	DefaultDatabase string
}

func NewResolver(defaultDatabase string) Resolver {
	return Resolver{DefaultDatabase: defaultDatabase}
}

// Resolve turns user input into a connection target. It performs no I/O.
func (r Resolver) Resolve(in ConnectionInput) (ResolvedConnection, error) {
	switch in := in.(type) {
	case URIInput:
		return r.resolveURI(in)
	case FieldsInput:
		return r.resolveFields(in)
	case nil:
		return ResolvedConnection{}, invalidInputf("no connection parameters given")
	default:
		return ResolvedConnection{}, invalidInputf("unsupported connection input %T", in)
	}
}

func (r Resolver) database(name string) (string, error) {
	db := helper.FirstNonEmpty(name, r.DefaultDatabase)
	if db == "" {
		return "", invalidInputf("database name is required")
	}
	if !helper.IsValidDatabaseName(db) {
		return "", invalidInputf("invalid database name %q", db)
	}
	return db, nil
}

func (r Resolver) resolveURI(in URIInput) (ResolvedConnection, error) {
	uri := strings.TrimSpace(in.URI)
	if uri == "" {
		return ResolvedConnection{}, invalidInputf("connection URI is empty")
	}
	if err := checkURI(uri); err != nil {
		return ResolvedConnection{}, err
	}
	db, err := r.database(in.Database)
	if err != nil {
		return ResolvedConnection{}, err
	}
	return ResolvedConnection{URI: uri, Database: db}, nil
}

func (r Resolver) resolveFields(in FieldsInput) (ResolvedConnection, error) {
	host := strings.TrimSpace(in.Host)
	if host == "" {
		return ResolvedConnection{}, invalidInputf("either a connection URI or a host is required")
	}
	if strings.ContainsAny(host, "/@?#, ") {
		return ResolvedConnection{}, invalidInputf("invalid host %q", host)
	}

	port := DefaultMongoPort
	if p := strings.TrimSpace(in.Port); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return ResolvedConnection{}, invalidInputf("port must be numeric, got %q", p)
		}
		if n <= 0 || n > 65535 {
			return ResolvedConnection{}, invalidInputf("port %d is out of range", n)
		}
		port = n
	}

	db, err := r.database(in.Database)
	if err != nil {
		return ResolvedConnection{}, err
	}

	username := strings.TrimSpace(in.Username)
	password := strings.TrimSpace(in.Password)
	if username == "" && password != "" {
		return ResolvedConnection{}, invalidInputf("password given without a username")
	}

	var b strings.Builder
	b.WriteString("mongodb://")
	if username != "" {
		b.WriteString(escapeCredential(username))
		if password != "" {
			b.WriteString(":")
			b.WriteString(escapeCredential(password))
		}
		b.WriteString("@")
	}
	b.WriteString(net.JoinHostPort(host, strconv.Itoa(port)))
	b.WriteString("/")

	if username != "" {
		// credentials without an explicit auth source authenticate against the target database
		authSource := helper.FirstNonEmpty(in.AuthSource, db)
		b.WriteString("?authSource=")
		b.WriteString(url.QueryEscape(authSource))
	} else if authSource := strings.TrimSpace(in.AuthSource); authSource != "" {
		b.WriteString("?authSource=")
		b.WriteString(url.QueryEscape(authSource))
	}

	uri := b.String()
	if err := checkURI(uri); err != nil {
		return ResolvedConnection{}, err
	}
	return ResolvedConnection{URI: uri, Database: db}, nil
}

// escapeCredential percent-encodes a user name or password. Spaces become
// %20 because the driver unescapes userinfo with path semantics.
func escapeCredential(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// checkURI validates the connection string syntax. SRV strings are only
// checked for their scheme since parsing them requires a DNS lookup.
func checkURI(uri string) error {
	switch {
	case strings.HasPrefix(uri, connstring.SchemeMongoDBSRV+"://"):
		if len(uri) == len(connstring.SchemeMongoDBSRV+"://") {
			return invalidInputf("connection URI has no host")
		}
		return nil
	case strings.HasPrefix(uri, connstring.SchemeMongoDB+"://"):
		if _, err := connstring.ParseAndValidate(uri); err != nil {
			return invalidInputf("invalid connection URI: %s", RedactURI(err.Error()))
		}
		return nil
	default:
		return invalidInputf("connection URI must start with mongodb:// or mongodb+srv://")
	}
}

var credentialsInURI = regexp.MustCompile(`(mongodb(?:\+srv)?://[^:@/\s]*):[^@/\s]*@`)

// RedactURI hides the password of any connection string found in s.
func RedactURI(s string) string {
	return credentialsInURI.ReplaceAllString(s, "${1}:xxxxx@")
}
