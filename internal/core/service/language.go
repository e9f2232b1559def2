package service

import (
	"path/filepath"
	"strings"
)

// Well-known filenames without an extension.
var specialFilenames = map[string]string{
	"dockerfile":     "dockerfile",
	"makefile":       "makefile",
	"rakefile":       "ruby",
	"gemfile":        "ruby",
	"gemfile.lock":   "plaintext",
	"guardfile":      "ruby",
	"procfile":       "yaml",
	"vagrantfile":    "ruby",
	"cmakelists.txt": "cmake",
	"go.mod":         "go-module",
	"go.sum":         "plaintext",
	"license":        "plaintext",
	"readme":         "markdown",
}

var extensionLanguages = map[string]string{
	".rb":       "ruby",
	".erb":      "erb",
	".rake":     "ruby",
	".go":       "go",
	".py":       "python",
	".js":       "javascript",
	".jsx":      "javascript",
	".mjs":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".java":     "java",
	".kt":       "kotlin",
	".c":        "c",
	".h":        "c",
	".cc":       "cpp",
	".cpp":      "cpp",
	".hpp":      "cpp",
	".cs":       "csharp",
	".rs":       "rust",
	".php":      "php",
	".swift":    "swift",
	".scala":    "scala",
	".ex":       "elixir",
	".exs":      "elixir",
	".erl":      "erlang",
	".hs":       "haskell",
	".lua":      "lua",
	".pl":       "perl",
	".r":        "r",
	".sh":       "shell",
	".bash":     "shell",
	".zsh":      "shell",
	".ps1":      "powershell",
	".sql":      "sql",
	".html":     "html",
	".htm":      "html",
	".css":      "css",
	".scss":     "scss",
	".sass":     "scss",
	".less":     "less",
	".vue":      "vue",
	".svelte":   "svelte",
	".json":     "json",
	".yml":      "yaml",
	".yaml":     "yaml",
	".toml":     "toml",
	".xml":      "xml",
	".ini":      "ini",
	".conf":     "ini",
	".md":       "markdown",
	".markdown": "markdown",
	".txt":      "plaintext",
	".proto":    "protobuf",
	".graphql":  "graphql",
	".tf":       "terraform",
	".dart":     "dart",
	".m":        "objective-c",
	".mm":       "objective-c",
	".clj":      "clojure",
	".zig":      "zig",
	".nim":      "nim",
	".v":        "verilog",
	".asm":      "assembly",
	".s":        "assembly",
}

var displayNames = map[string]string{
	"cpp":         "C++",
	"csharp":      "C#",
	"objective-c": "Objective-C",
	"javascript":  "JavaScript",
	"typescript":  "TypeScript",
	"go-module":   "Go module",
	"plaintext":   "Plain text",
	"php":         "PHP",
	"css":         "CSS",
	"scss":        "SCSS",
	"html":        "HTML",
	"sql":         "SQL",
	"xml":         "XML",
	"json":        "JSON",
	"yaml":        "YAML",
	"toml":        "TOML",
	"ini":         "INI",
	"erb":         "ERB",
}

// DetectLanguage maps a file path to a language tag. It never fails;
// unknown files are tagged plaintext.
func DetectLanguage(path string) string {
	base := strings.ToLower(filepath.Base(path))
	if lang, ok := specialFilenames[base]; ok {
		return lang
	}
	if ext := strings.ToLower(filepath.Ext(base)); ext != "" {
		if lang, ok := extensionLanguages[ext]; ok {
			return lang
		}
	}
	return "plaintext"
}

// DisplayLanguage returns a human-readable label for the detected
// language of a path, used when building prompts.
func DisplayLanguage(path string) string {
	lang := DetectLanguage(path)
	if name, ok := displayNames[lang]; ok {
		return name
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}
