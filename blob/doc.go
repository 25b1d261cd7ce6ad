// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package blob stores attachment bytes.

# Backends

  - S3Store: any S3-compatible bucket through aws-sdk-go-v2; URLs are presigned GETs.
  - LocalStore: a directory on disk; URLs are /files links signed with auth.SignDownload.
  - MemStore: in-memory, for tests.

# Keys

Objects are keyed {tenantId}/{ownerId}/{unixMillis}-{fileName}, where the
owner is the família or indivíduo the file belongs to. The tenant prefix lets
the download route check ownership before touching the database.

# Uploads

CheckUpload accepts JPG, PNG and PDF up to MaxUploadSize. The extension, the
declared Content-Type and the sniffed content must all agree.
*/
package blob
