package help

const ColdstartYAML = `# site-indexer Quick Start

pipeline:
  crawl: "Discover page URLs from the site's start URL -> websites/<site>/scraped_urls.txt"
  scrape: "Fetch, normalize and store every page -> websites/<site>/scraped_html/*.html"
  generate: "Ask the chat model for navigation guides -> websites/<site>/openai_html/*.txt"
  upload: "Title, embed and index every guide -> websites/<site>/ai_documents/<env>/<YYYY_MM_DD>/*.json"
  delete: "Remove uploaded records from the search index"

commands:
  full_run: |
    site-indexer --site clo3d crawl
    site-indexer --site clo3d scrape
    site-indexer --site clo3d --env dev generate
    site-indexer --site clo3d --env dev upload

  one_page: |
    site-indexer --site clo3d scrape --url https://clo3d.com/en/company
    site-indexer --site clo3d --env dev generate --file en_company.html

  refresh_raw_html: |
    site-indexer --site clo3d scrape --force-fetch

  inspect_page: |
    site-indexer --site clo3d normalize --url https://clo3d.com/en/company
    site-indexer --site clo3d normalize --file saved.html --compact
    site-indexer --site clo3d reduce --file en_company.html

  ledger: |
    site-indexer --site clo3d ledger pages
    site-indexer --site clo3d ledger page en_company
    site-indexer --site clo3d --env prod ledger documents --deleted
    site-indexer --site clo3d ledger stats

  keywords: |
    site-indexer --site clo3d keywords --top 30 --list
    site-indexer --site clo3d keywords --source guides

  remove: |
    site-indexer --site clo3d --env dev delete --id <article id>
    site-indexer --site clo3d --env dev delete --all

configuration:
  sites: "sites.yaml (--config): base URL, root selector and overrides, denylists, crawl exclusions, render/skip lists"
  credentials: ".env.dev / .env.prod (--env-dir): AZURE_SEARCH_*, AZURE_OPENAI_*, <BRAND>_AZURE_SEARCH_INDEX_EN"

key_files:
  - "websites/site-indexer.db (ledger of URLs, fetches, pages and documents)"
  - "websites/<site>/cache/ (raw downloads, reused for --max-age)"
`
