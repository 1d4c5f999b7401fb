// Package legacy imports the JSON files kept by the chat bot proxysort
// replaces.
//
// The bot stored everything as JSON files in a single Proxys directory:
//
//	Proxys/
//	  customMappings.json   {"<ip>": "<category>", ...}
//	  unknown.json          {"<ip>": ["<url>", ...], ...}
//	  <category>.json       ["<url>", ...]
//	  scan_results.txt      last scan report (ignored)
//	  get_links.txt         last retrieval output (ignored)
//
// Import merges a directory into the database. Every write is a union, so
// importing the same directory twice changes nothing.
package legacy
