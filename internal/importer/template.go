package importer

// Template is a one-row manifest listing every column the importer reads.
// Blank cells may be left empty or written as "-", "NA" or "none".
const Template = `# Litigation case import manifest
# One list entry per case. Dates accept YYYY-MM-DD, DD-MM-YYYY, DD/MM/YYYY,
# DD.MM.YYYY and DD Mon YYYY. Flags accept yes/no.
- forum: High Court
  status: Hearing
  filed_date: "2024-01-15"
  case_type: Writ Petition
  case_no: WP 1234/2024
  connected_cases: []
  is_appeal: "no"
  lower_court: ""
  lower_court_case_no: ""
  lower_court_order_date: ""
  counsel_name: A. Sharma
  counsel_contact: "+91 98100 00000"
  asg_engaged: "no"
  brief_facts: Challenge to the transfer order dated 02.01.2024.
  affidavit_status: Sent for vetting
  final_order_date: ""
  last_hearing_date: "2024-02-10"
  next_hearing_date: "2024-03-05"
  petitioners:
    - name: ABC Corporation
      address: 12 Park Street, Kolkata
  respondents:
    - name: Union of India
      address: ""
`
