package resolve

import "strings"

// DefaultAliases maps import names whose distribution is published under a
// different name. Entries are looked up exactly first, then lower-cased.
var DefaultAliases = map[string]string{
	"attr":          "attrs",
	"bs4":           "beautifulsoup4",
	"cv2":           "opencv-python",
	"Crypto":        "pycryptodome",
	"dateutil":      "python-dateutil",
	"dns":           "dnspython",
	"docx":          "python-docx",
	"dotenv":        "python-dotenv",
	"fitz":          "pymupdf",
	"git":           "GitPython",
	"google":        "protobuf",
	"jose":          "python-jose",
	"jwt":           "PyJWT",
	"magic":         "python-magic",
	"MySQLdb":       "mysqlclient",
	"mysql":         "mysql-connector-python",
	"OpenSSL":       "pyOpenSSL",
	"PIL":           "pillow",
	"pil":           "pillow",
	"pkg_resources": "setuptools",
	"psycopg2":      "psycopg2-binary",
	"serial":        "pyserial",
	"skimage":       "scikit-image",
	"sklearn":       "scikit-learn",
	"slugify":       "python-slugify",
	"telegram":      "python-telegram-bot",
	"usb":           "pyusb",
	"win32api":      "pywin32",
	"win32con":      "pywin32",
	"yaml":          "pyyaml",
	"zmq":           "pyzmq",
}

// Aliases is an import-name to distribution-name table.
type Aliases map[string]string

// NewAliases returns DefaultAliases overlaid with extra. An empty value in
// extra removes the default entry for that name.
func NewAliases(extra map[string]string) Aliases {
	a := make(Aliases, len(DefaultAliases)+len(extra))
	for k, v := range DefaultAliases {
		a[k] = v
	}
	for k, v := range extra {
		if v == "" {
			delete(a, k)
			continue
		}
		a[k] = v
	}
	return a
}

// Lookup returns the distribution for name.
func (a Aliases) Lookup(name string) (string, bool) {
	if pkg, ok := a[name]; ok {
		return pkg, true
	}
	pkg, ok := a[strings.ToLower(name)]
	return pkg, ok
}
